package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-service/internal/auth"
	"github.com/spec-kit/commerce-service/internal/config"
	"github.com/spec-kit/commerce-service/internal/domain"
	"github.com/spec-kit/commerce-service/internal/repository"
	apperrors "github.com/spec-kit/commerce-service/pkg/util"
)

type stubUserRepo struct {
	byEmail map[string]*domain.User
	nextID  int

	failedLogins     map[string]int
	successfulLogins map[string]int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail:          map[string]*domain.User{},
		failedLogins:     map[string]int{},
		successfulLogins: map[string]int{},
	}
}

func (s *stubUserRepo) Create(ctx context.Context, user *domain.User) error {
	if _, ok := s.byEmail[user.Email]; ok {
		return repository.ErrEmailTaken
	}
	s.nextID++
	user.ID = fmt.Sprintf("user-%d", s.nextID)
	s.byEmail[user.Email] = user
	return nil
}

func (s *stubUserRepo) Update(ctx context.Context, user *domain.User) error {
	s.byEmail[user.Email] = user
	return nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUserRepo) GetByEmailAndRole(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	u, ok := s.byEmail[email]
	if !ok || u.Role != role {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (s *stubUserRepo) RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockFor time.Duration) error {
	s.failedLogins[id]++
	return nil
}

func (s *stubUserRepo) RecordSuccessfulLogin(ctx context.Context, id string) error {
	s.successfulLogins[id]++
	return nil
}

type stubAddressRepo struct {
	addresses []domain.Address
}

func (s *stubAddressRepo) Create(ctx context.Context, address *domain.Address) error {
	s.addresses = append(s.addresses, *address)
	return nil
}

func (s *stubAddressRepo) Update(ctx context.Context, address *domain.Address) error { return nil }

func (s *stubAddressRepo) Delete(ctx context.Context, userID, id string) error { return nil }

func (s *stubAddressRepo) GetByID(ctx context.Context, userID, id string) (*domain.Address, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubAddressRepo) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.addresses, nil
}

func (s *stubAddressRepo) ClearDefault(ctx context.Context, userID string) error {
	for i := range s.addresses {
		s.addresses[i].IsDefault = false
	}
	return nil
}

type stubPendingRepo struct {
	entries map[string]*domain.PendingRegistration
}

func newStubPendingRepo() *stubPendingRepo {
	return &stubPendingRepo{entries: map[string]*domain.PendingRegistration{}}
}

func (s *stubPendingRepo) Put(ctx context.Context, pending *domain.PendingRegistration, ttl time.Duration) error {
	s.entries[pending.Email] = pending
	return nil
}

func (s *stubPendingRepo) Get(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	if p, ok := s.entries[email]; ok {
		return p, nil
	}
	return nil, repository.ErrPendingNotFound
}

func (s *stubPendingRepo) Delete(ctx context.Context, email string) error {
	delete(s.entries, email)
	return nil
}

type stubMailer struct {
	sent    []string
	lastMsg string
	fail    bool
}

func (s *stubMailer) SendPlainTextEmail(ctx context.Context, to, subject, body string) error {
	if s.fail {
		return errors.New("smtp unreachable")
	}
	s.sent = append(s.sent, to)
	s.lastMsg = body
	return nil
}

type authFixture struct {
	svc     *AuthService
	users   *stubUserRepo
	pending *stubPendingRepo
	mailer  *stubMailer
	addrs   *stubAddressRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	fx := &authFixture{
		users:   newStubUserRepo(),
		pending: newStubPendingRepo(),
		mailer:  &stubMailer{},
		addrs:   &stubAddressRepo{},
	}
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:              "test-secret",
			AdminAccessCode:        "secret-door",
			SessionTTLMinutes:      60,
			OTPTTLMinutes:          10,
			PasswordResetTTLHours:  1,
			BcryptCost:             4,
			MaxLoginAttempts:       5,
			LockoutDurationMinutes: 15,
		},
	}
	fx.svc = NewAuthService(cfg, AuthDependencies{
		UserRepo:    fx.users,
		AddressRepo: fx.addrs,
		PendingRepo: fx.pending,
		Mailer:      fx.mailer,
		Logger:      zap.NewNop(),
	})
	return fx
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var derr *apperrors.DomainError
	require.ErrorAs(t, err, &derr)
	return derr.Code
}

func TestRegisterTwoStepParksPendingRegistration(t *testing.T) {
	fx := newAuthFixture(t)

	outcome, err := fx.svc.Register(context.Background(), RegisterInput{
		Email:    "Shopper@Example.Com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.True(t, outcome.OTPRequired)
	assert.Empty(t, outcome.UserID)

	pending, ok := fx.pending.entries["shopper@example.com"]
	require.True(t, ok, "registration must be parked under the lowercased email")
	assert.Len(t, pending.OTP, 6)
	assert.Contains(t, fx.mailer.lastMsg, pending.OTP)

	_, err = fx.users.GetByEmail(context.Background(), "shopper@example.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows, "no user row before completion")
}

func TestRegisterSingleStepCreatesUnverifiedUser(t *testing.T) {
	fx := newAuthFixture(t)

	outcome, err := fx.svc.Register(context.Background(), RegisterInput{
		Email:    "shopper@example.com",
		Password: "hunter22",
		Name:     "Shopper",
	})
	require.NoError(t, err)
	assert.True(t, outcome.OTPRequired)
	assert.NotEmpty(t, outcome.UserID)

	user, err := fx.users.GetByEmail(context.Background(), "shopper@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsEmailVerified)
	require.NotNil(t, user.EmailOTP)
	assert.Contains(t, fx.mailer.lastMsg, *user.EmailOTP)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	fx := newAuthFixture(t)
	fx.users.byEmail["shopper@example.com"] = &domain.User{ID: "user-1", Email: "shopper@example.com"}

	_, err := fx.svc.Register(context.Background(), RegisterInput{
		Email:    "shopper@example.com",
		Password: "hunter22",
	})
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestRegisterMailFailureDiscardsPending(t *testing.T) {
	fx := newAuthFixture(t)
	fx.mailer.fail = true

	_, err := fx.svc.Register(context.Background(), RegisterInput{
		Email:    "shopper@example.com",
		Password: "hunter22",
	})
	assert.Equal(t, "NOTIFICATION_FAILED", domainCode(t, err))
	assert.Empty(t, fx.pending.entries, "undeliverable registration must not linger")
}

func TestVerifyOTPPendingRequiresCompletion(t *testing.T) {
	fx := newAuthFixture(t)
	fx.pending.entries["shopper@example.com"] = &domain.PendingRegistration{
		Email:     "shopper@example.com",
		OTP:       "123456",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}

	outcome, err := fx.svc.VerifyEmailOTP(context.Background(), "shopper@example.com", "123456")
	require.NoError(t, err)
	assert.True(t, outcome.CompletionRequired)
	assert.Nil(t, outcome.Session)

	_, ok := fx.pending.entries["shopper@example.com"]
	assert.True(t, ok, "verification must not consume the pending record")
}

func TestVerifyOTPRejectsWrongAndExpiredCodes(t *testing.T) {
	fx := newAuthFixture(t)
	fx.pending.entries["shopper@example.com"] = &domain.PendingRegistration{
		Email:     "shopper@example.com",
		OTP:       "123456",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}

	_, err := fx.svc.VerifyEmailOTP(context.Background(), "shopper@example.com", "654321")
	assert.Equal(t, "INVALID_CODE", domainCode(t, err))

	fx.pending.entries["shopper@example.com"].ExpiresAt = time.Now().Add(-time.Minute)
	_, err = fx.svc.VerifyEmailOTP(context.Background(), "shopper@example.com", "123456")
	assert.Equal(t, "INVALID_CODE", domainCode(t, err))

	_, err = fx.svc.VerifyEmailOTP(context.Background(), "nobody@example.com", "123456")
	assert.Equal(t, "INVALID_CODE", domainCode(t, err))
}

func TestVerifyOTPSingleStepIssuesSession(t *testing.T) {
	fx := newAuthFixture(t)
	code := "123456"
	expires := time.Now().Add(5 * time.Minute)
	fx.users.byEmail["shopper@example.com"] = &domain.User{
		ID:                "user-1",
		Name:              "Shopper",
		Email:             "shopper@example.com",
		Role:              domain.RoleCustomer,
		IsActive:          true,
		EmailOTP:          &code,
		EmailOTPExpiresAt: &expires,
	}

	outcome, err := fx.svc.VerifyEmailOTP(context.Background(), "shopper@example.com", code)
	require.NoError(t, err)
	assert.False(t, outcome.CompletionRequired)
	require.NotNil(t, outcome.Session)
	assert.NotEmpty(t, outcome.Session.Token)

	user := fx.users.byEmail["shopper@example.com"]
	assert.True(t, user.IsEmailVerified)
	assert.Nil(t, user.EmailOTP, "a consumed code must not verify twice")
}

func TestCompleteRegistrationPromotesPendingUser(t *testing.T) {
	fx := newAuthFixture(t)
	fx.pending.entries["shopper@example.com"] = &domain.PendingRegistration{
		Email:     "shopper@example.com",
		Password:  "hunter22",
		OTP:       "123456",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}

	session, err := fx.svc.CompleteRegistration(context.Background(), CompleteRegistrationInput{
		Email:   "shopper@example.com",
		Name:    "Shopper",
		Address: &domain.Address{Recipient: "Shopper", Street: "1 Main St"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.User.IsEmailVerified)

	assert.Empty(t, fx.pending.entries, "completion must consume the pending record")
	require.Len(t, fx.addrs.addresses, 1)
	assert.True(t, fx.addrs.addresses[0].IsDefault)

	// the parked password must have been hashed, never stored verbatim
	assert.NotEqual(t, "hunter22", session.User.PasswordHash)
	require.NoError(t, fx.svc.ChangePassword(context.Background(), session.User.ID, "hunter22", "new-password"))
}

func TestCompleteRegistrationWithoutPending(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.svc.CompleteRegistration(context.Background(), CompleteRegistrationInput{
		Email: "nobody@example.com",
		Name:  "Nobody",
	})
	assert.Equal(t, "INVALID_CODE", domainCode(t, err))
}

func registeredUser(t *testing.T, fx *authFixture, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	user := &domain.User{
		Email:           email,
		PasswordHash:    hash,
		Role:            role,
		IsActive:        true,
		IsEmailVerified: true,
	}
	require.NoError(t, fx.users.Create(context.Background(), user))
	return user
}

func TestLoginWrongPasswordCountsTowardLockout(t *testing.T) {
	fx := newAuthFixture(t)
	user := registeredUser(t, fx, "shopper@example.com", "hunter22", domain.RoleCustomer)

	_, err := fx.svc.Login(context.Background(), "shopper@example.com", "wrong")
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
	assert.Equal(t, 1, fx.users.failedLogins[user.ID])
}

func TestLoginLockedAccount(t *testing.T) {
	fx := newAuthFixture(t)
	user := registeredUser(t, fx, "shopper@example.com", "hunter22", domain.RoleCustomer)
	until := time.Now().Add(10 * time.Minute)
	user.LockedUntil = &until

	_, err := fx.svc.Login(context.Background(), "shopper@example.com", "hunter22")
	assert.Equal(t, "ACCOUNT_LOCKED", domainCode(t, err))
	assert.Zero(t, fx.users.failedLogins[user.ID], "locked logins are rejected before password checks")
}

func TestLoginDisabledAccount(t *testing.T) {
	fx := newAuthFixture(t)
	user := registeredUser(t, fx, "shopper@example.com", "hunter22", domain.RoleCustomer)
	user.IsActive = false

	_, err := fx.svc.Login(context.Background(), "shopper@example.com", "hunter22")
	assert.Equal(t, "ACCOUNT_DISABLED", domainCode(t, err))
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	fx := newAuthFixture(t)
	user := registeredUser(t, fx, "shopper@example.com", "hunter22", domain.RoleCustomer)
	user.FailedLoginAttempts = 3

	session, err := fx.svc.Login(context.Background(), "Shopper@Example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, 1, fx.users.successfulLogins[user.ID])
}

func TestLoginRejectsAdminAccounts(t *testing.T) {
	fx := newAuthFixture(t)
	registeredUser(t, fx, "admin@example.com", "hunter22", domain.RoleAdmin)

	_, err := fx.svc.Login(context.Background(), "admin@example.com", "hunter22")
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
}

func TestAdminLoginWrongAccessCodeCountsAsFailure(t *testing.T) {
	fx := newAuthFixture(t)
	user := registeredUser(t, fx, "admin@example.com", "hunter22", domain.RoleAdmin)

	_, err := fx.svc.AdminLogin(context.Background(), "admin@example.com", "hunter22", "not-the-code")
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
	assert.Equal(t, 1, fx.users.failedLogins[user.ID])

	session, err := fx.svc.AdminLogin(context.Background(), "admin@example.com", "hunter22", "secret-door")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
}

func TestAdminLoginUnknownEmail(t *testing.T) {
	fx := newAuthFixture(t)
	registeredUser(t, fx, "shopper@example.com", "hunter22", domain.RoleCustomer)

	// a customer account is invisible to the admin login
	_, err := fx.svc.AdminLogin(context.Background(), "shopper@example.com", "hunter22", "secret-door")
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
}

func TestForgotPasswordSilentForUnknownEmail(t *testing.T) {
	fx := newAuthFixture(t)

	require.NoError(t, fx.svc.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Empty(t, fx.mailer.sent)
}

func TestResetPasswordConsumesToken(t *testing.T) {
	fx := newAuthFixture(t)
	user := registeredUser(t, fx, "shopper@example.com", "hunter22", domain.RoleCustomer)

	require.NoError(t, fx.svc.ForgotPassword(context.Background(), "shopper@example.com"))
	require.NotNil(t, user.ResetToken)
	token := *user.ResetToken

	err := fx.svc.ResetPassword(context.Background(), "shopper@example.com", "bogus", "new-password")
	assert.Equal(t, "INVALID_TOKEN", domainCode(t, err))

	require.NoError(t, fx.svc.ResetPassword(context.Background(), "shopper@example.com", token, "new-password"))
	assert.Nil(t, user.ResetToken)

	err = fx.svc.ResetPassword(context.Background(), "shopper@example.com", token, "again")
	assert.Equal(t, "INVALID_TOKEN", domainCode(t, err), "a reset token is single use")

	_, err = fx.svc.Login(context.Background(), "shopper@example.com", "new-password")
	require.NoError(t, err)
}

func TestCreateAddressFirstBecomesDefault(t *testing.T) {
	fx := newAuthFixture(t)

	first := &domain.Address{UserID: "user-1", Recipient: "Shopper", Street: "1 Main St"}
	require.NoError(t, fx.svc.CreateAddress(context.Background(), first))
	assert.True(t, first.IsDefault)

	second := &domain.Address{UserID: "user-1", Recipient: "Shopper", Street: "2 Side St", IsDefault: true}
	require.NoError(t, fx.svc.CreateAddress(context.Background(), second))
	assert.True(t, second.IsDefault)
	assert.False(t, fx.addrs.addresses[0].IsDefault, "only one default address at a time")
}

func TestAddressMutationsRejectMalformedID(t *testing.T) {
	fx := newAuthFixture(t)

	err := fx.svc.UpdateAddress(context.Background(), &domain.Address{ID: "not-a-uuid", UserID: "user-1"})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	err = fx.svc.DeleteAddress(context.Background(), "user-1", "not-a-uuid")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}
