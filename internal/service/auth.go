package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/tokens"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const minPasswordLen = 6

type AuthService struct {
	Repo             *repo.GormRepo
	JWTSecret        []byte
	TokenTTL         time.Duration
	ResetTokenTTL    time.Duration
	AllowAdminSignup bool
	Events           EventPublisher
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	role := models.RoleUser
	if strings.EqualFold(req.Role, models.RoleAdmin) && s.AllowAdminSignup {
		role = models.RoleAdmin
	}

	u := &models.User{Name: name, Email: req.Email, Phone: strings.TrimSpace(req.Phone), Role: role}
	if err := s.Repo.CreateUser(ctx, u, req.Password); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("register_error", "status", 409, "reason", "user already exists")
			return nil, fmt.Errorf("user already exists: %w", ErrConflict)
		}
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicUser, u.ID.String(), UserEvent{
		Type: "user_registered", UserID: u.ID.String(), Email: u.Email, At: time.Now().UTC(),
	})
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	u, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
		}
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", u.ID)
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}

	token, exp, err := tokens.IssueAccess(s.JWTSecret, u.ID, u.Role, s.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	now := time.Now().UTC()
	if err := s.Repo.UpdateUser(ctx, u.ID, map[string]any{"last_login": now}); err != nil {
		l.Warn("last_login_error", "user_id", u.ID, "error", err)
	} else {
		u.LastLogin = &now
	}

	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.Repo.GetUser(ctx, userID)
	if isNotFound(err) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return u, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req transport.ProfileRequest) (*models.User, error) {
	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", ErrValidation)
		}
		fields["name"] = name
	}
	if req.Email != nil {
		if err := validateEmail(*req.Email); err != nil {
			return nil, err
		}
		fields["email"] = *req.Email
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		fields[repo.PasswordField] = *req.Password
	}
	for col, v := range map[string]*string{
		"phone": req.Phone, "address": req.Address, "city": req.City,
		"state": req.State, "pincode": req.Pincode, "image_url": req.ImageURL,
	} {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}

	if err := s.Repo.UpdateUser(ctx, userID, fields); err != nil {
		switch {
		case isNotFound(err):
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		case errors.Is(err, repo.ErrDuplicate):
			return nil, fmt.Errorf("email already in use: %w", ErrConflict)
		}
		return nil, err
	}
	return s.Profile(ctx, userID)
}

// ForgotPassword issues a short-lived reset token. Delivery is up to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	u, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return "", err
	}
	token, err := tokens.IssueReset(s.JWTSecret, u.ID, s.ResetTokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue reset token: %w", err)
	}
	return token, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := tokens.ResetClaimsFromToken(token, s.JWTSecret)
	if err != nil {
		return fmt.Errorf("reset token: %w", ErrUnauthorized)
	}
	userID, err := claims.UserID()
	if err != nil {
		return fmt.Errorf("reset token subject: %w", ErrUnauthorized)
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	if err := s.Repo.UpdateUser(ctx, userID, map[string]any{repo.PasswordField: password}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return err
	}
	publish(ctx, s.Events, mykafka.TopicUser, userID.String(), UserEvent{
		Type: "password_reset", UserID: userID.String(), At: time.Now().UTC(),
	})
	return nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

// SetRole changes the role of several users at once.
func (s *AuthService) SetRole(ctx context.Context, ids []uuid.UUID, role string) (int64, error) {
	switch {
	case strings.EqualFold(role, models.RoleAdmin):
		role = models.RoleAdmin
	case strings.EqualFold(role, models.RoleUser):
		role = models.RoleUser
	default:
		return 0, fmt.Errorf("unknown role %q: %w", role, ErrValidation)
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("userIds is required: %w", ErrValidation)
	}
	return s.Repo.UpdateUsers(ctx, ids, map[string]any{"role": role})
}

// EnsureAdmin creates the admin account, or promotes and re-keys an existing one.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) (*models.User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	u, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if u != nil {
		fields := map[string]any{"role": models.RoleAdmin, repo.PasswordField: password}
		if err := s.Repo.UpdateUser(ctx, u.ID, fields); err != nil {
			return nil, err
		}
		return s.Profile(ctx, u.ID)
	}

	u = &models.User{Name: name, Email: email, Role: models.RoleAdmin}
	if err := s.Repo.CreateUser(ctx, u, password); err != nil {
		return nil, err
	}
	return u, nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required: %w", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email: %w", ErrValidation)
	}
	return nil
}

func validatePassword(p string) error {
	if len(p) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrValidation)
	}
	return nil
}
