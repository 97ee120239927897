package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartLine{}
	}
	return &cart, nil
}

// InsertCart creates the first cart of a user. A concurrent insert for the same
// user fails with ErrDuplicate.
func (r *GormRepo) InsertCart(ctx context.Context, cart *models.Cart) error {
	cart.Revision = 1
	return translate(r.DB.WithContext(ctx).Create(cart).Error)
}

// SaveCart writes items and total only if the stored revision still equals
// cart.Revision, then advances cart.Revision.
func (r *GormRepo) SaveCart(ctx context.Context, cart *models.Cart) error {
	expected := cart.Revision
	cart.Revision = expected + 1

	res := r.DB.WithContext(ctx).Model(cart).
		Where("revision = ?", expected).
		Select("items", "total_price", "revision", "updated_at").
		Updates(cart)
	if res.Error != nil {
		cart.Revision = expected
		return res.Error
	}
	if res.RowsAffected == 0 {
		cart.Revision = expected
		return ErrStaleRevision
	}
	return nil
}
