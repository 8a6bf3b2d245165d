package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	AppPort string

	StoreBackend string
	KVNamespace  string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IdempTTLSecs      int
	SweepIntervalSecs int

	MaxRepaymentMonths  int
	DefaultInterestRate float64
	Currency            string
	LoanCatalogFile     string

	LogLevel string
	LogDev   bool

	MinioEndpoint       string
	MinioAccessKey      string
	MinioSecretKey      string
	MinioUseSSL         bool
	MinioRegion         string
	MinioPresignMinutes int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvFloat(k string, d float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

func Load() *Config {
	return &Config{
		AppPort: getenv("APP_PORT", "8080"),

		StoreBackend: getenv("STORE_BACKEND", BackendRedis),
		KVNamespace:  getenv("KV_NAMESPACE", "makono"),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "makono"),
		MySQLUser: getenv("MYSQL_USER", "makono"),
		MySQLPass: getenv("MYSQL_PASS", "makono"),

		SQLitePath: getenv("SQLITE_PATH", "makono.db"),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),

		IdempTTLSecs:      getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),
		SweepIntervalSecs: getenvInt("SWEEP_INTERVAL_SECONDS", 60),

		MaxRepaymentMonths:  getenvInt("MAX_REPAYMENT_MONTHS", 2),
		DefaultInterestRate: getenvFloat("DEFAULT_INTEREST_RATE", 30),
		Currency:            getenv("CURRENCY", "MKW"),
		LoanCatalogFile:     os.Getenv("LOAN_CATALOG_FILE"),

		LogLevel: getenv("LOG_LEVEL", "info"),
		LogDev:   getenvBool("LOG_DEV", false),

		MinioEndpoint:       os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:      os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:      os.Getenv("MINIO_SECRET_KEY"),
		MinioUseSSL:         getenvBool("MINIO_USE_SSL", false),
		MinioRegion:         getenv("MINIO_REGION", "us-east-1"),
		MinioPresignMinutes: getenvInt("MINIO_PRESIGN_MINUTES", 15),
	}
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.StoreBackend {
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("missing REDIS_ADDR for redis backend")
		}
	case BackendMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH for sqlite backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want redis, mysql, sqlite or memory)", c.StoreBackend)
	}
	if c.SweepIntervalSecs <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL_SECONDS must be positive, got %d", c.SweepIntervalSecs)
	}
	if c.MaxRepaymentMonths < 1 {
		return fmt.Errorf("MAX_REPAYMENT_MONTHS must be at least 1, got %d", c.MaxRepaymentMonths)
	}
	if c.DefaultInterestRate <= 0 || c.DefaultInterestRate > 100 {
		return fmt.Errorf("DEFAULT_INTEREST_RATE must be in (0, 100], got %v", c.DefaultInterestRate)
	}
	if c.MinioEndpoint != "" && (c.MinioAccessKey == "" || c.MinioSecretKey == "") {
		return errors.New("MINIO_ENDPOINT set without MINIO_ACCESS_KEY/MINIO_SECRET_KEY")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSecs) * time.Second
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) PresignExpiry() time.Duration {
	return time.Duration(c.MinioPresignMinutes) * time.Minute
}
