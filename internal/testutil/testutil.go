// Package testutil wires throwaway backends for package tests.
package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/realsbd/bicxchange/internal/repository/db"
)

// NewDB opens a private in-memory sqlite database with the model schema applied.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	gdb := NewEmptyDB(t)
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return gdb
}

// NewEmptyDB opens a private in-memory sqlite database without any tables.
func NewEmptyDB(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := db.Open("sqlite://", zerolog.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

// NewRedis starts an in-process redis server and returns a client bound to it.
func NewRedis(t testing.TB) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}
