package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-service/internal/auth"
	"github.com/spec-kit/commerce-service/internal/config"
	"github.com/spec-kit/commerce-service/internal/domain"
	"github.com/spec-kit/commerce-service/internal/events"
	"github.com/spec-kit/commerce-service/internal/repository"
	"github.com/spec-kit/commerce-service/pkg/mail"
	apperrors "github.com/spec-kit/commerce-service/pkg/util"
)

// Session bundles an authenticated user with their signed token.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// RegisterInput describes a registration request. A present Name makes
// it the single-step variant; an absent Name begins the two-step flow.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// RegistrationOutcome signals what the caller must do next.
type RegistrationOutcome struct {
	OTPRequired bool
	UserID      string
}

// VerifyOutcome distinguishes two-step verification (profile completion
// still pending) from single-step verification (session issued).
type VerifyOutcome struct {
	CompletionRequired bool
	Session            *Session
}

// AuthService coordinates registration, login and account flows.
type AuthService struct {
	users      repository.UserRepository
	addresses  repository.AddressRepository
	pending    repository.PendingRegistrationRepository
	mailer     mail.Mailer
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger

	bcryptCost   int
	adminCode    string
	otpTTL       time.Duration
	resetTTL     time.Duration
	maxAttempts  int
	lockFor      time.Duration
	resetBaseURL string
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	AddressRepo repository.AddressRepository
	PendingRepo repository.PendingRegistrationRepository
	Mailer      mail.Mailer
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:        deps.UserRepo,
		addresses:    deps.AddressRepo,
		pending:      deps.PendingRepo,
		mailer:       deps.Mailer,
		dispatcher:   deps.Dispatcher,
		tokenMgr:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTLMinutes),
		logger:       deps.Logger,
		bcryptCost:   cfg.Auth.BcryptCost,
		adminCode:    cfg.Auth.AdminAccessCode,
		otpTTL:       time.Duration(cfg.Auth.OTPTTLMinutes) * time.Minute,
		resetTTL:     time.Duration(cfg.Auth.PasswordResetTTLHours) * time.Hour,
		maxAttempts:  cfg.Auth.MaxLoginAttempts,
		lockFor:      time.Duration(cfg.Auth.LockoutDurationMinutes) * time.Minute,
		resetBaseURL: cfg.Mail.ResetBaseURL,
	}
}

// Register begins registration. The two-step flow parks the request in
// the pending store until the emailed code is verified and the profile
// completed; the single-step flow creates the user immediately with an
// unverified email.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegistrationOutcome, error) {
	email := normalizeEmail(input.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.otpTTL)

	if input.Name != "" {
		hash, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user := &domain.User{
			Name:              input.Name,
			Email:             email,
			PasswordHash:      hash,
			Role:              domain.RoleCustomer,
			Phone:             input.Phone,
			IsActive:          true,
			IsEmailVerified:   false,
			EmailOTP:          &code,
			EmailOTPExpiresAt: &expiresAt,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrEmailTaken) {
				return nil, apperrors.NewConflict("email already registered", nil)
			}
			return nil, err
		}
		if err := s.sendOTPEmail(ctx, email, code); err != nil {
			return nil, apperrors.NewNotificationFailed(err)
		}
		return &RegistrationOutcome{OTPRequired: true, UserID: user.ID}, nil
	}

	pending := &domain.PendingRegistration{
		Email:     email,
		Password:  input.Password,
		Phone:     input.Phone,
		OTP:       code,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.pending.Put(ctx, pending, s.otpTTL); err != nil {
		return nil, err
	}
	if err := s.sendOTPEmail(ctx, email, code); err != nil {
		if delErr := s.pending.Delete(ctx, email); delErr != nil {
			s.logger.Warn("discard pending registration", zap.Error(delErr))
		}
		return nil, apperrors.NewNotificationFailed(err)
	}
	return &RegistrationOutcome{OTPRequired: true}, nil
}

// VerifyEmailOTP checks the code against the pending store first, then
// against an unverified user record. A pending match leaves the record
// in place; completion consumes it. A user match verifies the email and
// issues a session.
func (s *AuthService) VerifyEmailOTP(ctx context.Context, email, code string) (*VerifyOutcome, error) {
	email = normalizeEmail(email)
	now := time.Now()

	pending, err := s.pending.Get(ctx, email)
	if err == nil {
		if pending.OTP != code || pending.Expired(now) {
			return nil, apperrors.NewInvalidCode("invalid or expired code")
		}
		return &VerifyOutcome{CompletionRequired: true}, nil
	}
	if !errors.Is(err, repository.ErrPendingNotFound) {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidCode("invalid or expired code")
		}
		return nil, err
	}
	if user.EmailOTP == nil || *user.EmailOTP != code ||
		user.EmailOTPExpiresAt == nil || now.After(*user.EmailOTPExpiresAt) {
		return nil, apperrors.NewInvalidCode("invalid or expired code")
	}

	user.IsEmailVerified = true
	user.EmailOTP = nil
	user.EmailOTPExpiresAt = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.sendWelcomeEmail(ctx, user)

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	return &VerifyOutcome{Session: session}, nil
}

// ResendEmailOTP regenerates a code for an existing unverified user.
// Pending registrations must restart with a fresh register call.
func (s *AuthService) ResendEmailOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	if user.IsEmailVerified {
		return apperrors.NewConflict("email already verified", nil)
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(s.otpTTL)
	user.EmailOTP = &code
	user.EmailOTPExpiresAt = &expiresAt
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	if err := s.sendOTPEmail(ctx, email, code); err != nil {
		return apperrors.NewNotificationFailed(err)
	}
	return nil
}

// CompleteRegistrationInput finishes the two-step flow.
type CompleteRegistrationInput struct {
	Email   string
	Name    string
	Phone   string
	Address *domain.Address
}

// CompleteRegistration promotes a pending registration to a verified
// user and issues a session.
func (s *AuthService) CompleteRegistration(ctx context.Context, input CompleteRegistrationInput) (*Session, error) {
	email := normalizeEmail(input.Email)
	now := time.Now()

	pending, err := s.pending.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrPendingNotFound) {
			return nil, apperrors.NewInvalidCode("no registration in progress")
		}
		return nil, err
	}
	if pending.Expired(now) {
		_ = s.pending.Delete(ctx, email)
		return nil, apperrors.NewInvalidCode("invalid or expired code")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		_ = s.pending.Delete(ctx, email)
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(pending.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	phone := input.Phone
	if phone == "" {
		phone = pending.Phone
	}
	user := &domain.User{
		Name:            input.Name,
		Email:           email,
		PasswordHash:    hash,
		Role:            domain.RoleCustomer,
		Phone:           phone,
		IsActive:        true,
		IsEmailVerified: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			_ = s.pending.Delete(ctx, email)
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}
	if err := s.pending.Delete(ctx, email); err != nil {
		s.logger.Warn("consume pending registration", zap.Error(err))
	}

	if input.Address != nil {
		input.Address.UserID = user.ID
		input.Address.IsDefault = true
		if err := s.addresses.Create(ctx, input.Address); err != nil {
			s.logger.Warn("create initial address", zap.Error(err))
		}
	}

	s.sendWelcomeEmail(ctx, user)

	return s.issueSession(user)
}

// Login authenticates a customer account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, err
	}
	if user.Role == domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin accounts must use the admin login")
	}
	return s.finishLogin(ctx, user, password)
}

// AdminLogin authenticates an admin account. The password is verified
// before the shared admin access code; either failure counts toward the
// lockout threshold.
func (s *AuthService) AdminLogin(ctx context.Context, email, password, accessCode string) (*Session, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmailAndRole(ctx, email, domain.RoleAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, err
	}
	if err := s.checkAccountState(user); err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.failLogin(ctx, user)
	}
	if accessCode != s.adminCode {
		return nil, s.failLogin(ctx, user)
	}
	return s.succeedLogin(ctx, user)
}

func (s *AuthService) finishLogin(ctx context.Context, user *domain.User, password string) (*Session, error) {
	if err := s.checkAccountState(user); err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.failLogin(ctx, user)
	}
	return s.succeedLogin(ctx, user)
}

func (s *AuthService) checkAccountState(user *domain.User) error {
	if user.IsLocked(time.Now()) {
		return apperrors.NewAccountLocked()
	}
	if !user.IsActive {
		return apperrors.NewAccountDisabled()
	}
	return nil
}

func (s *AuthService) failLogin(ctx context.Context, user *domain.User) error {
	if err := s.users.RecordFailedLogin(ctx, user.ID, s.maxAttempts, s.lockFor); err != nil {
		s.logger.Warn("record failed login", zap.Error(err))
	}
	return apperrors.NewInvalidCredentials()
}

func (s *AuthService) succeedLogin(ctx context.Context, user *domain.User) (*Session, error) {
	if err := s.users.RecordSuccessfulLogin(ctx, user.ID); err != nil {
		s.logger.Warn("record successful login", zap.Error(err))
	}
	return s.issueSession(user)
}

// ChangePassword verifies the current password before updating.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewInvalidCredentials()
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// ForgotPassword issues a single-use reset token. The response is the
// same whether or not the account exists, so callers cannot probe for
// registered addresses.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(s.resetTTL)
	user.ResetToken = &token
	user.ResetTokenExpiresAt = &expiresAt
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	link := s.resetBaseURL + "?email=" + email + "&token=" + token
	if err := s.mailer.SendPlainTextEmail(ctx, email,
		"Reset your password",
		"Use the link below to reset your password. It expires in one hour.\n\n"+link,
	); err != nil {
		s.logger.Warn("send password reset email", zap.Error(err))
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *AuthService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewInvalidToken("invalid or expired reset token")
		}
		return err
	}
	if user.ResetToken == nil || *user.ResetToken != token ||
		user.ResetTokenExpiresAt == nil || time.Now().After(*user.ResetTokenExpiresAt) {
		return apperrors.NewInvalidToken("invalid or expired reset token")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ResetToken = nil
	user.ResetTokenExpiresAt = nil
	return s.users.Update(ctx, user)
}

// UpdateProfile mutates the self-service fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, phone string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name != "" {
		user.Name = name
	}
	if phone != "" {
		user.Phone = phone
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListAddresses returns the caller's address book.
func (s *AuthService) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.addresses.ListByUser(ctx, userID)
}

// CreateAddress adds a saved address. The first address, or one flagged
// default, becomes the single default.
func (s *AuthService) CreateAddress(ctx context.Context, address *domain.Address) error {
	existing, err := s.addresses.ListByUser(ctx, address.UserID)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		address.IsDefault = true
	} else if address.IsDefault {
		if err := s.addresses.ClearDefault(ctx, address.UserID); err != nil {
			return err
		}
	}
	return s.addresses.Create(ctx, address)
}

// UpdateAddress mutates a saved address, keeping the single-default invariant.
func (s *AuthService) UpdateAddress(ctx context.Context, address *domain.Address) error {
	if _, err := uuid.Parse(address.ID); err != nil {
		return apperrors.NewValidationError("invalid address id", nil)
	}
	if _, err := s.addresses.GetByID(ctx, address.UserID, address.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("address", nil)
		}
		return err
	}
	if address.IsDefault {
		if err := s.addresses.ClearDefault(ctx, address.UserID); err != nil {
			return err
		}
	}
	return s.addresses.Update(ctx, address)
}

// DeleteAddress removes a saved address.
func (s *AuthService) DeleteAddress(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewValidationError("invalid address id", nil)
	}
	if err := s.addresses.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("address", nil)
		}
		return err
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issueSession(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) sendOTPEmail(ctx context.Context, email, code string) error {
	return s.mailer.SendPlainTextEmail(ctx, email,
		"Your verification code",
		"Your verification code is "+code+". It expires in 10 minutes.",
	)
}

// sendWelcomeEmail is best-effort; a failed welcome message never rolls
// back a completed registration.
func (s *AuthService) sendWelcomeEmail(ctx context.Context, user *domain.User) {
	if err := s.mailer.SendPlainTextEmail(ctx, user.Email,
		"Welcome!",
		"Hi "+user.Name+", your account is ready.",
	); err != nil {
		s.logger.Warn("send welcome email", zap.Error(err))
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserRegistered,
			UserID:    user.ID,
			UserEmail: user.Email,
			Timestamp: time.Now(),
			Payload:   events.UserRegisteredPayload{Name: user.Name},
		})
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
