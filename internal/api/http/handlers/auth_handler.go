package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/commerce-service/internal/api/dto"
	"github.com/spec-kit/commerce-service/internal/auth"
	"github.com/spec-kit/commerce-service/internal/service"
	apperrors "github.com/spec-kit/commerce-service/pkg/util"
)

// AuthHandler exposes registration, login and account endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	cookies *auth.AuthMiddleware
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, middleware *auth.AuthMiddleware) *AuthHandler {
	return &AuthHandler{auth: authService, cookies: middleware}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	outcome, err := h.auth.Register(c.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": fiber.Map{
			"otp_required": outcome.OTPRequired,
			"message":      "verification code sent",
		},
	})
}

// VerifyEmailOTP handles POST /auth/verify-email-otp.
func (h *AuthHandler) VerifyEmailOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Code == "" {
		return apperrors.NewValidationError("email and code required", nil)
	}

	outcome, err := h.auth.VerifyEmailOTP(c.Context(), req.Email, req.Code)
	if err != nil {
		return err
	}
	if outcome.CompletionRequired {
		return c.JSON(fiber.Map{
			"data": fiber.Map{
				"completion_required": true,
				"message":             "code verified; complete your profile to finish registration",
			},
		})
	}

	h.cookies.SetSessionCookie(c, outcome.Session.Token, outcome.Session.ExpiresAt)
	return c.JSON(fiber.Map{"data": sessionPayload(outcome.Session)})
}

// ResendEmailOTP handles POST /auth/resend-email-otp.
func (h *AuthHandler) ResendEmailOTP(c *fiber.Ctx) error {
	var req dto.ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	if err := h.auth.ResendEmailOTP(c.Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "verification code sent"}})
}

// CompleteRegistration handles POST /auth/complete-registration.
func (h *AuthHandler) CompleteRegistration(c *fiber.Ctx) error {
	var req dto.CompleteRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("email and name required", nil)
	}

	input := service.CompleteRegistrationInput{
		Email: req.Email,
		Name:  req.Name,
		Phone: req.Phone,
	}
	if req.Address != nil {
		address := req.Address.ToDomain()
		input.Address = &address
	}

	session, err := h.auth.CompleteRegistration(c.Context(), input)
	if err != nil {
		return err
	}
	h.cookies.SetSessionCookie(c, session.Token, session.ExpiresAt)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionPayload(session)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	session, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.cookies.SetSessionCookie(c, session.Token, session.ExpiresAt)
	return c.JSON(fiber.Map{"data": sessionPayload(session)})
}

// AdminLogin handles POST /auth/admin/login.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" || req.AdminCode == "" {
		return apperrors.NewValidationError("email, password and admin_code required", nil)
	}

	session, err := h.auth.AdminLogin(c.Context(), req.Email, req.Password, req.AdminCode)
	if err != nil {
		return err
	}
	h.cookies.SetSessionCookie(c, session.Token, session.ExpiresAt)
	return c.JSON(fiber.Map{"data": sessionPayload(session)})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.cookies.ClearSessionCookie(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "logged out"}})
}

// ForgotPassword handles POST /auth/forgot-password. The response never
// reveals whether the address is registered.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	if err := h.auth.ForgotPassword(c.Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "if the address is registered, a reset link has been sent"}})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("email, token and new_password required", nil)
	}
	if err := h.auth.ResetPassword(c.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "password updated"}})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(principal.User)})
}

// UpdateProfile handles PUT /auth/profile.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.auth.UpdateProfile(c.Context(), principal.User.ID, req.Name, req.Phone)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ChangePassword handles PUT /auth/change-password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current_password and new_password required", nil)
	}
	if err := h.auth.ChangePassword(c.Context(), principal.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "password updated"}})
}

// ListAddresses handles GET /auth/addresses.
func (h *AuthHandler) ListAddresses(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	addresses, err := h.auth.ListAddresses(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.AddressResponse, 0, len(addresses))
	for i := range addresses {
		items = append(items, dto.NewAddressResponse(&addresses[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateAddress handles POST /auth/addresses.
func (h *AuthHandler) CreateAddress(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AddressRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Recipient) == "" || strings.TrimSpace(req.Street) == "" {
		return apperrors.NewValidationError("recipient and street required", nil)
	}
	address := req.ToDomain()
	address.UserID = principal.User.ID
	if err := h.auth.CreateAddress(c.Context(), &address); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAddressResponse(&address)})
}

// UpdateAddress handles PUT /auth/addresses/:id.
func (h *AuthHandler) UpdateAddress(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AddressRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Recipient) == "" || strings.TrimSpace(req.Street) == "" {
		return apperrors.NewValidationError("recipient and street required", nil)
	}
	address := req.ToDomain()
	address.ID = c.Params("id")
	address.UserID = principal.User.ID
	if err := h.auth.UpdateAddress(c.Context(), &address); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAddressResponse(&address)})
}

// DeleteAddress handles DELETE /auth/addresses/:id.
func (h *AuthHandler) DeleteAddress(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.auth.DeleteAddress(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "address removed"}})
}

func sessionPayload(session *service.Session) fiber.Map {
	return fiber.Map{
		"user": dto.NewUserResponse(session.User),
		"auth": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
	}
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}
