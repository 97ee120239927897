package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}

	u, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("user_registered", "user_id", u.ID)
	return ok(c, http.StatusCreated, "User registered successfully.", u)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(l, "login_error", "email and password are required", nil)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_error", err)
	}

	return ok(c, http.StatusOK, "Login successful.", transport.LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.Unix(),
		User:      res.User,
	})
}

func (h *AuthHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.profile")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("profile_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	u, err := h.Svc.Profile(ctx, userID)
	if err != nil {
		return fail(l, "profile_error", err)
	}
	return ok(c, http.StatusOK, "Profile retrieved successfully.", u)
}

func (h *AuthHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.update_profile")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("update_profile_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_profile_error", "invalid body", err)
	}

	u, err := h.Svc.UpdateProfile(ctx, userID, req)
	if err != nil {
		return fail(l, "update_profile_error", err)
	}
	return ok(c, http.StatusOK, "Profile updated successfully.", u)
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.forgot_password")

	var req transport.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return badRequest(l, "forgot_password_error", "email is required", err)
	}

	token, err := h.Svc.ForgotPassword(ctx, req.Email)
	if err != nil {
		return fail(l, "forgot_password_error", err)
	}
	return ok(c, http.StatusOK, "Reset link generated.", transport.ForgotPasswordResponse{ResetToken: token})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.reset_password")

	var req transport.ResetPasswordRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return badRequest(l, "reset_password_error", "token and password are required", err)
	}

	if err := h.Svc.ResetPassword(ctx, req.Token, req.Password); err != nil {
		return fail(l, "reset_password_error", err)
	}
	return ok(c, http.StatusOK, "Password reset successfully.", nil)
}

func (h *AuthHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.list_users")

	users, err := h.Svc.ListUsers(ctx)
	if err != nil {
		return fail(l, "list_users_error", err)
	}
	return ok(c, http.StatusOK, "Users fetched successfully.", users)
}

func (h *AuthHTTP) SetRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.set_role")

	var req transport.UsersRoleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "set_role_error", "invalid body", err)
	}

	n, err := h.Svc.SetRole(ctx, req.UserIDs, req.Role)
	if err != nil {
		return fail(l, "set_role_error", err)
	}
	l.Info("roles_updated", "count", n, "role", req.Role)
	return ok(c, http.StatusOK, "Roles updated successfully.", map[string]int64{"updated": n})
}
