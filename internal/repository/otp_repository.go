package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
)

// OTPRepository stores one-time login codes. Only the most recent code per
// email exists at any time: issuing a new code replaces the previous record.
type OTPRepository interface {
	// Replace stores a fresh code hash for the email, superseding any
	// earlier record, with the given logical expiry.
	Replace(ctx context.Context, email, codeHash string, ttl time.Duration) error
	// Latest returns the current record for the email, nil if none survives.
	Latest(ctx context.Context, email string) (*domain.OneTimeCode, error)
	IncrementAttempts(ctx context.Context, email string) error
	MarkUsed(ctx context.Context, email string) error
}

// retention keeps a record readable past its logical expiry so verification
// can report "code expired" instead of "no active code"; after that the key
// is removed by the store itself.
const retention = 30 * time.Minute

type otpRepository struct {
	client *redis.Client
}

func NewOTPRepository(client *redis.Client) OTPRepository {
	return &otpRepository{client: client}
}

func otpKey(email string) string {
	return "otp:" + email
}

func (r *otpRepository) Replace(ctx context.Context, email, codeHash string, ttl time.Duration) error {
	now := time.Now()
	key := otpKey(email)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]interface{}{
		"code_hash":  codeHash,
		"attempts":   0,
		"used":       0,
		"created_at": now.Unix(),
		"expires_at": now.Add(ttl).Unix(),
	})
	pipe.Expire(ctx, key, ttl+retention)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *otpRepository) Latest(ctx context.Context, email string) (*domain.OneTimeCode, error) {
	fields, err := r.client.HGetAll(ctx, otpKey(email)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	attempts, _ := strconv.Atoi(fields["attempts"])
	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	expiresAt, _ := strconv.ParseInt(fields["expires_at"], 10, 64)

	return &domain.OneTimeCode{
		Email:     email,
		CodeHash:  fields["code_hash"],
		Attempts:  attempts,
		Used:      fields["used"] == "1",
		CreatedAt: time.Unix(createdAt, 0),
		ExpiresAt: time.Unix(expiresAt, 0),
	}, nil
}

func (r *otpRepository) IncrementAttempts(ctx context.Context, email string) error {
	return r.client.HIncrBy(ctx, otpKey(email), "attempts", 1).Err()
}

func (r *otpRepository) MarkUsed(ctx context.Context, email string) error {
	return r.client.HSet(ctx, otpKey(email), "used", 1).Err()
}
