package db

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func mockDialector(t *testing.T) (sqlmock.Sqlmock, gorm.Dialector) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true, // don't query @@version
	})
	return mock, dial
}

func TestOpenGormWithDialector_Success(t *testing.T) {
	mock, dial := mockDialector(t)
	mock.ExpectPing()

	gdb, err := OpenGormWithDialector(dial)
	if err != nil {
		t.Fatalf("OpenGormWithDialector error: %v", err)
	}
	if gdb == nil {
		t.Fatalf("got nil gorm.DB")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenGormWithDialector_PingFails(t *testing.T) {
	mock, dial := mockDialector(t)
	mock.ExpectPing().WillReturnError(errors.New("no ping"))

	gdb, err := OpenGormWithDialector(dial)
	if err == nil {
		t.Fatalf("expected error, got nil (gdb=%v)", gdb)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenSQLite_InMemory(t *testing.T) {
	gdb, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := gdb.Exec("CREATE TABLE t (k TEXT)").Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := gdb.Exec("INSERT INTO t (k) VALUES ('a')").Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var n int64
	if err := gdb.Table("t").Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("count = %d, err = %v", n, err)
	}
}
