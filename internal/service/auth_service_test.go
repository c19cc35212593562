package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/alexedwards/argon2id"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/service"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/auth"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/config"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	nextID int64
	users  map[string]*domain.User // email -> user
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{nextID: 1, users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, req *domain.SignupRequest, passwordHash string) (*domain.User, error) {
	if _, exists := m.users[req.Email]; exists {
		return nil, domain.ErrUserExists
	}
	u := &domain.User{
		ID:           m.nextID,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		FullName:     req.FullName,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.nextID++
	m.users[req.Email] = u
	return u, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.users[email], nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) MarkVerified(_ context.Context, id int64) error {
	for _, u := range m.users {
		if u.ID == id {
			u.IsVerified = true
		}
	}
	return nil
}

type mockOTPRepo struct {
	records map[string]*domain.OneTimeCode // email -> record
}

func newMockOTPRepo() *mockOTPRepo {
	return &mockOTPRepo{records: make(map[string]*domain.OneTimeCode)}
}

func (m *mockOTPRepo) Replace(_ context.Context, email, codeHash string, ttl time.Duration) error {
	m.records[email] = &domain.OneTimeCode{
		Email:     email,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
	return nil
}

func (m *mockOTPRepo) Latest(_ context.Context, email string) (*domain.OneTimeCode, error) {
	return m.records[email], nil
}

func (m *mockOTPRepo) IncrementAttempts(_ context.Context, email string) error {
	if rec := m.records[email]; rec != nil {
		rec.Attempts++
	}
	return nil
}

func (m *mockOTPRepo) MarkUsed(_ context.Context, email string) error {
	if rec := m.records[email]; rec != nil {
		rec.Used = true
	}
	return nil
}

type mockMailer struct {
	lastTo   string
	lastCode string
	sendErr  error
	sent     int
}

func (m *mockMailer) SendLoginCode(toEmail, toName, code string, _ time.Duration) error {
	m.lastTo = toEmail
	m.lastCode = code
	m.sent++
	return m.sendErr
}

func (m *mockMailer) SendOrderConfirmation(toEmail, _, _ string, _, _ float64) error {
	m.lastTo = toEmail
	m.sent++
	return m.sendErr
}

// ---------- Test Setup ----------

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "test-secret",
		SessionTokenTTL: 7 * 24 * time.Hour,
		OTPTTL:          5 * time.Minute,
		OTPMaxAttempts:  5,
	}
}

func setupAuth(t *testing.T) (service.AuthService, *mockUserRepo, *mockOTPRepo, *mockMailer) {
	t.Helper()
	users := newMockUserRepo()
	codes := newMockOTPRepo()
	mail := &mockMailer{}
	return service.NewAuthService(users, codes, mail, testAuthConfig()), users, codes, mail
}

func registerUser(t *testing.T, svc service.AuthService, email, password string) {
	t.Helper()
	_, err := svc.Signup(context.Background(), &domain.SignupRequest{
		Username: "seller42",
		Email:    email,
		Password: password,
		FullName: "Test User",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
}

// ---------- Tests ----------

func TestSignup_HashesPassword(t *testing.T) {
	svc, users, _, _ := setupAuth(t)

	registerUser(t, svc, "a@example.com", "supersecret1")

	u := users.users["a@example.com"]
	if u == nil {
		t.Fatal("Expected user to be stored")
	}
	if u.PasswordHash == "supersecret1" {
		t.Fatal("Password stored in plaintext")
	}
	if ok, _ := argon2id.ComparePasswordAndHash("supersecret1", u.PasswordHash); !ok {
		t.Fatal("Stored hash does not match password")
	}
}

func TestSignup_DuplicateRejected(t *testing.T) {
	svc, _, _, _ := setupAuth(t)

	registerUser(t, svc, "a@example.com", "supersecret1")

	_, err := svc.Signup(context.Background(), &domain.SignupRequest{
		Username: "someoneelse",
		Email:    "a@example.com",
		Password: "supersecret2",
		FullName: "Other",
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("Expected ErrUserExists, got %v", err)
	}
}

func TestSignup_ShortPasswordRejected(t *testing.T) {
	svc, _, _, _ := setupAuth(t)

	_, err := svc.Signup(context.Background(), &domain.SignupRequest{
		Username: "shorty",
		Email:    "short@example.com",
		Password: "short",
		FullName: "Short",
	})
	if err == nil {
		t.Fatal("Expected validation error for short password")
	}
}

func TestLogin_UnknownEmailAndWrongPassword_SameError(t *testing.T) {
	svc, _, _, _ := setupAuth(t)
	registerUser(t, svc, "a@example.com", "supersecret1")

	errUnknown := svc.Login(context.Background(), &domain.LoginRequest{Email: "nobody@example.com", Password: "whatever12"})
	errWrong := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@example.com", Password: "wrongpassword"})

	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials for unknown email, got %v", errUnknown)
	}
	if !errors.Is(errWrong, domain.ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials for wrong password, got %v", errWrong)
	}
}

func TestLogin_IssuesHashedCode(t *testing.T) {
	svc, _, codes, mail := setupAuth(t)
	registerUser(t, svc, "a@example.com", "supersecret1")

	if err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@example.com", Password: "supersecret1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if mail.lastTo != "a@example.com" {
		t.Fatalf("Expected code emailed to a@example.com, got %s", mail.lastTo)
	}
	if len(mail.lastCode) != 6 {
		t.Fatalf("Expected 6-digit code, got %q", mail.lastCode)
	}

	rec := codes.records["a@example.com"]
	if rec == nil {
		t.Fatal("Expected code record to be stored")
	}
	if rec.CodeHash == mail.lastCode {
		t.Fatal("Code stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(mail.lastCode)); err != nil {
		t.Fatalf("Stored hash does not match emailed code: %v", err)
	}
	if until := time.Until(rec.ExpiresAt); until <= 0 || until > 5*time.Minute {
		t.Fatalf("Expected expiry within 5 minutes, got %v", until)
	}
}

func TestLogin_MailFailureDoesNotBlock(t *testing.T) {
	svc, _, codes, mail := setupAuth(t)
	registerUser(t, svc, "a@example.com", "supersecret1")
	mail.sendErr = errors.New("smtp down")

	if err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@example.com", Password: "supersecret1"}); err != nil {
		t.Fatalf("Expected login to succeed despite mail failure, got %v", err)
	}
	if codes.records["a@example.com"] == nil {
		t.Fatal("Expected code record despite mail failure")
	}
}

func TestVerifyOTP_SuccessIssuesSession(t *testing.T) {
	svc, users, _, mail := setupAuth(t)
	registerUser(t, svc, "a@example.com", "supersecret1")
	if err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@example.com", Password: "supersecret1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	session, err := svc.VerifyOTP(context.Background(), &domain.VerifyOTPRequest{Email: "a@example.com", OTP: mail.lastCode})
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if session.Token == "" {
		t.Fatal("Expected session token")
	}
	if session.ExpiresIn != int64((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("Expected 7 day expiry, got %d", session.ExpiresIn)
	}

	claims, err := auth.Parse(session.Token, "test-secret")
	if err != nil {
		t.Fatalf("Failed to parse JWT: %v", err)
	}
	if claims.Email != "a@example.com" || claims.Sub != 1 {
		t.Fatalf("Invalid claims: email=%s sub=%d", claims.Email, claims.Sub)
	}

	if !users.users["a@example.com"].IsVerified {
		t.Fatal("Expected user to be marked verified")
	}
}

func TestVerifyOTP_CodeIsSingleUse(t *testing.T) {
	svc, _, _, mail := setupAuth(t)
	registerUser(t, svc, "a@example.com", "supersecret1")
	if err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@example.com", Password: "supersecret1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := svc.VerifyOTP(context.Background(), &domain.VerifyOTPRequest{Email: "a@example.com", OTP: mail.lastCode}); err != nil {
		t.Fatalf("First verification failed: %v", err)
	}

	_, err := svc.VerifyOTP(context.Background(), &domain.VerifyOTPRequest{Email: "a@example.com", OTP: mail.lastCode})
	if !errors.Is(err, domain.ErrNoActiveCode) {
		t.Fatalf("Expected ErrNoActiveCode on reuse, got %v", err)
	}
}

func TestVerifyOTP_Expired(t *testing.T) {
	svc, _, codes, mail := setupAuth(t)
	registerUser(t, svc, "a@example.com", "supersecret1")
	if err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@example.com", Password: "supersecret1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	codes.records["a@example.com"].ExpiresAt = time.Now().Add(-time.Minute)

	_, err := svc.VerifyOTP(context.Background(), &domain.VerifyOTPRequest{Email: "a@example.com", OTP: mail.lastCode})
	if !errors.Is(err, domain.ErrCodeExpired) {
		t.Fatalf("Expected ErrCodeExpired, got %v", err)
	}
}

func TestVerifyOTP_WrongCodeCountsAttempt(t *testing.T) {
	svc, _, codes, _ := setupAuth(t)
	registerUser(t, svc, "a@example.com", "supersecret1")
	if err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@example.com", Password: "supersecret1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	_, err := svc.VerifyOTP(context.Background(), &domain.VerifyOTPRequest{Email: "a@example.com", OTP: "000000"})
	if !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("Expected ErrInvalidCode, got %v", err)
	}
	if codes.records["a@example.com"].Attempts != 1 {
		t.Fatalf("Expected 1 attempt recorded, got %d", codes.records["a@example.com"].Attempts)
	}
}

func TestVerifyOTP_LockoutAfterMaxAttempts(t *testing.T) {
	svc, _, _, mail := setupAuth(t)
	registerUser(t, svc, "a@example.com", "supersecret1")
	if err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@example.com", Password: "supersecret1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// The real code might collide with the guess, so pick the other one.
	wrong := "000000"
	if mail.lastCode == wrong {
		wrong = "000001"
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.VerifyOTP(context.Background(), &domain.VerifyOTPRequest{Email: "a@example.com", OTP: wrong}); !errors.Is(err, domain.ErrInvalidCode) {
			t.Fatalf("Attempt %d: expected ErrInvalidCode, got %v", i+1, err)
		}
	}

	// Even the correct code is refused once locked out.
	_, err := svc.VerifyOTP(context.Background(), &domain.VerifyOTPRequest{Email: "a@example.com", OTP: mail.lastCode})
	if !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("Expected ErrTooManyAttempts, got %v", err)
	}
}

func TestVerifyOTP_NoCodeIssued(t *testing.T) {
	svc, _, _, _ := setupAuth(t)
	registerUser(t, svc, "a@example.com", "supersecret1")

	_, err := svc.VerifyOTP(context.Background(), &domain.VerifyOTPRequest{Email: "a@example.com", OTP: "123456"})
	if !errors.Is(err, domain.ErrNoActiveCode) {
		t.Fatalf("Expected ErrNoActiveCode, got %v", err)
	}
}

func TestLogin_NewCodeSupersedesOld(t *testing.T) {
	svc, _, _, mail := setupAuth(t)
	registerUser(t, svc, "a@example.com", "supersecret1")

	if err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@example.com", Password: "supersecret1"}); err != nil {
		t.Fatalf("First login failed: %v", err)
	}
	oldCode := mail.lastCode

	if err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@example.com", Password: "supersecret1"}); err != nil {
		t.Fatalf("Second login failed: %v", err)
	}

	if oldCode != mail.lastCode {
		if _, err := svc.VerifyOTP(context.Background(), &domain.VerifyOTPRequest{Email: "a@example.com", OTP: oldCode}); !errors.Is(err, domain.ErrInvalidCode) {
			t.Fatalf("Expected superseded code to be rejected, got %v", err)
		}
	}

	if _, err := svc.VerifyOTP(context.Background(), &domain.VerifyOTPRequest{Email: "a@example.com", OTP: mail.lastCode}); err != nil {
		t.Fatalf("Expected newest code to verify, got %v", err)
	}
}
