package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/logger"
)

// RateLimitRepository counts requests per key inside a sliding window.
type RateLimitRepository interface {
	// CheckRateLimit reports whether the request fits the window. A store
	// error allows the request: briefly losing rate limiting is better than
	// refusing every login while the database is down.
	CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// limitStore is the slice of pgxpool.Pool the repository needs. Tests swap
// in a failing store to exercise the fail-open path.
type limitStore interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type rateLimitRepository struct {
	store limitStore
}

func NewRateLimitRepository(pool *pgxpool.Pool) RateLimitRepository {
	return &rateLimitRepository{store: pool}
}

// hashLimitKey keeps raw IPs and emails out of the rate_limits table.
func hashLimitKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// The UPSERT resets the counter when the stored window has aged out,
// otherwise it increments in place. One statement, so concurrent requests
// against the same key never race the check against the update.
const checkLimitQuery = `
	INSERT INTO rate_limits (rl_key, count, window_start, expires_at)
	VALUES ($1, 1, $2, $3)
	ON CONFLICT (rl_key) DO UPDATE SET
		count = CASE WHEN rate_limits.window_start < $2 THEN 1 ELSE rate_limits.count + 1 END,
		window_start = CASE WHEN rate_limits.window_start < $2 THEN $2 ELSE rate_limits.window_start END,
		expires_at = $3
	RETURNING count`

func (r *rateLimitRepository) CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := time.Now()

	var count int
	err := r.store.QueryRow(ctx, checkLimitQuery, hashLimitKey(key), now.Add(-window), now.Add(time.Hour)).Scan(&count)
	if err != nil {
		logger.ErrorContext(ctx, "rate limit check failed, allowing request", "error", err)
		return true, nil
	}

	return count <= requests, nil
}

func (r *rateLimitRepository) CleanupExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM rate_limits WHERE expires_at < now()`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tag, err := r.store.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
