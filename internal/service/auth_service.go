package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/mailer"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/repository"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/auth"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/config"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/logger"
)

type AuthService interface {
	Signup(ctx context.Context, req *domain.SignupRequest) (*domain.Profile, error)
	// Login checks the password and, on success, emails a one-time code.
	// The session token is only issued after VerifyOTP.
	Login(ctx context.Context, req *domain.LoginRequest) error
	VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (*domain.SessionResponse, error)
	Me(ctx context.Context, userID int64) (*domain.Profile, error)
}

type authService struct {
	users  repository.UserRepository
	codes  repository.OTPRepository
	mailer mailer.Service
	cfg    config.AuthConfig
}

func NewAuthService(users repository.UserRepository, codes repository.OTPRepository, m mailer.Service, cfg config.AuthConfig) AuthService {
	return &authService{users: users, codes: codes, mailer: m, cfg: cfg}
}

func (s *authService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.Profile, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, req.Email, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req, hash)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user.ToProfile(), nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		// Same failure as a wrong password, so login probes cannot tell
		// registered emails from unknown ones.
		return domain.ErrInvalidCredentials
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	if !match {
		return domain.ErrInvalidCredentials
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	if err := s.codes.Replace(ctx, user.Email, string(codeHash), s.cfg.OTPTTL); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	if err := s.mailer.SendLoginCode(user.Email, user.FullName, code, s.cfg.OTPTTL); err != nil {
		// The code is stored, so a delivery hiccup should not fail the
		// login; the user can retry from the same screen.
		logger.ErrorContext(ctx, "failed to send login code", "error", err, "email", user.Email)
	}

	logger.InfoContext(ctx, "login code issued", "user_id", user.ID)
	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (*domain.SessionResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNoActiveCode
	}

	rec, err := s.codes.Latest(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("load code: %w", err)
	}
	if rec == nil || rec.Used {
		return nil, domain.ErrNoActiveCode
	}
	if rec.IsExpired(nowFunc()) {
		return nil, domain.ErrCodeExpired
	}
	if rec.Attempts >= s.cfg.OTPMaxAttempts {
		return nil, domain.ErrTooManyAttempts
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(req.OTP)); err != nil {
		if err := s.codes.IncrementAttempts(ctx, user.Email); err != nil {
			logger.ErrorContext(ctx, "failed to bump code attempts", "error", err)
		}
		return nil, domain.ErrInvalidCode
	}

	if err := s.codes.MarkUsed(ctx, user.Email); err != nil {
		return nil, fmt.Errorf("mark code used: %w", err)
	}
	if !user.IsVerified {
		if err := s.users.MarkVerified(ctx, user.ID); err != nil {
			logger.ErrorContext(ctx, "failed to mark user verified", "error", err, "user_id", user.ID)
		} else {
			user.IsVerified = true
		}
	}

	token, err := auth.NewSessionToken(user.ID, user.Email, user.Username, s.cfg.JWTSecret, s.cfg.SessionTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	logger.InfoContext(ctx, "session issued", "user_id", user.ID)
	return &domain.SessionResponse{
		Token:     token,
		ExpiresIn: int64(s.cfg.SessionTokenTTL.Seconds()),
		User:      user.ToProfile(),
	}, nil
}

func (s *authService) Me(ctx context.Context, userID int64) (*domain.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user.ToProfile(), nil
}

// generateCode returns a 6-digit code with leading zeros preserved.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
