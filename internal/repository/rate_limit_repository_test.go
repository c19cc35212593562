package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errStoreDown = errors.New("connection refused")

type failingStore struct{}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func (failingStore) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{err: errStoreDown}
}

func (failingStore) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errStoreDown
}

func TestCheckRateLimit_FailsOpenOnStoreError(t *testing.T) {
	repo := &rateLimitRepository{store: failingStore{}}

	allowed, err := repo.CheckRateLimit(context.Background(), "ip:203.0.113.7", 10, time.Minute)
	if err != nil {
		t.Fatalf("Expected store errors to be swallowed, got %v", err)
	}
	if !allowed {
		t.Fatal("Expected request to be allowed when the store is down")
	}
}

func TestCleanupExpired_SurfacesStoreError(t *testing.T) {
	repo := &rateLimitRepository{store: failingStore{}}

	if _, err := repo.CleanupExpired(context.Background()); !errors.Is(err, errStoreDown) {
		t.Fatalf("Expected store error surfaced, got %v", err)
	}
}

func TestHashLimitKey_HidesRawKey(t *testing.T) {
	raw := "email:buyer@example.com"
	hashed := hashLimitKey(raw)

	if len(hashed) != 64 {
		t.Fatalf("Expected 64-char hex digest, got %d chars", len(hashed))
	}
	if strings.Contains(hashed, "buyer") {
		t.Fatal("Expected raw key hidden in stored value")
	}
	if hashed != hashLimitKey(raw) {
		t.Fatal("Expected stable digest for the same key")
	}
	if hashed == hashLimitKey("ip:203.0.113.7") {
		t.Fatal("Expected distinct keys to hash differently")
	}
}
