package kvmock

import (
	"context"
	"errors"
	"testing"

	"makono-backend/internal/domain/kv"
)

func TestStore_DefaultsToMap(t *testing.T) {
	ctx := context.Background()
	m := &Store{}

	if _, err := m.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Get missing: want kv.ErrNotFound, got %v", err)
	}
	if err := m.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || string(got) != "v1" {
		t.Fatalf("Get: got %q, %v", got, err)
	}
	// returned slice is a copy
	got[0] = 'x'
	if string(m.Raw("k")) != "v1" {
		t.Fatalf("stored value mutated through Get result")
	}
	if m.Sets() != 1 {
		t.Fatalf("Sets = %d, want 1", m.Sets())
	}
}

func TestStore_UsesProvidedFuncs(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("boom")
	getCalled, setCalled := false, false
	m := &Store{
		GetFn: func(gotCtx context.Context, key string) ([]byte, error) {
			getCalled = true
			if gotCtx != ctx || key != "a" {
				t.Fatalf("Get args mismatch: %s", key)
			}
			return []byte("z"), nil
		},
		SetFn: func(gotCtx context.Context, key string, value []byte) error {
			setCalled = true
			return wantErr
		},
	}
	if v, _ := m.Get(ctx, "a"); string(v) != "z" {
		t.Fatalf("Get = %q", v)
	}
	if err := m.Set(ctx, "a", nil); !errors.Is(err, wantErr) {
		t.Fatalf("Set: want %v, got %v", wantErr, err)
	}
	if !getCalled || !setCalled {
		t.Fatalf("funcs not called: get=%v set=%v", getCalled, setCalled)
	}
	if m.Sets() != 0 {
		t.Fatalf("SetFn path must not touch the map")
	}
}
