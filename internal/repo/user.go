package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
)

// PasswordField is the key callers use to pass a plaintext password in update maps.
const PasswordField = "password"

// applyCredentialPolicy is the single gate for user writes: email is lowercased
// and a plaintext password is replaced by its bcrypt hash before any SQL runs.
func applyCredentialPolicy(fields map[string]any) error {
	if v, ok := fields["email"]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("email must be a string")
		}
		fields["email"] = NormalizeEmail(s)
	}
	if _, ok := fields["password_hash"]; ok {
		return fmt.Errorf("password_hash cannot be written directly")
	}
	if v, ok := fields[PasswordField]; ok {
		plain, ok := v.(string)
		if !ok || plain == "" {
			return fmt.Errorf("password must be a non-empty string")
		}
		h, err := hash.HashPassword(plain)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		delete(fields, PasswordField)
		fields["password_hash"] = h
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores u with the given plaintext password.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User, password string) error {
	fields := map[string]any{"email": u.Email, PasswordField: password}
	if err := applyCredentialPolicy(fields); err != nil {
		return err
	}
	u.Email = fields["email"].(string)
	u.PasswordHash = fields["password_hash"].(string)

	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *GormRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser applies column updates to one user. A "password" key carries plaintext.
func (r *GormRepo) UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := applyCredentialPolicy(fields); err != nil {
		return err
	}
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateUsers is the bulk path; it goes through the same credential gate.
func (r *GormRepo) UpdateUsers(ctx context.Context, ids []uuid.UUID, fields map[string]any) (int64, error) {
	if len(ids) == 0 || len(fields) == 0 {
		return 0, nil
	}
	if err := applyCredentialPolicy(fields); err != nil {
		return 0, err
	}
	if _, ok := fields["email"]; ok && len(ids) > 1 {
		return 0, errors.New("email cannot be bulk assigned")
	}
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id IN ?", ids).Updates(fields)
	return res.RowsAffected, translate(res.Error)
}

func (r *GormRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}
