package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type OrderFilter struct {
	Status models.OrderStatus
	UserID uuid.UUID
	From   *time.Time
	To     *time.Time
	Offset int
	Limit  int
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	list := q.Session(&gorm.Session{}).Order("created_at DESC")
	if f.Limit > 0 {
		list = list.Offset(f.Offset).Limit(f.Limit)
	}
	var out []models.Order
	if err := list.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateOrder writes the named columns of order, guarded by the status the
// caller observed so a concurrent transition is not overwritten.
func (r *GormRepo) UpdateOrder(ctx context.Context, order *models.Order, observed models.OrderStatus, columns ...string) error {
	cols := make([]string, 0, len(columns)+1)
	cols = append(cols, columns...)
	cols = append(cols, "updated_at")
	res := r.DB.WithContext(ctx).Model(order).
		Where("status = ?", observed).
		Select(cols).
		Updates(order)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleRevision
	}
	return nil
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CancelOrphanedOrders cancels pending orders that never got a payment intent.
func (r *GormRepo) CancelOrphanedOrders(ctx context.Context, createdBefore time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("status = ? AND intent_id = ? AND created_at < ?", models.OrderStatusPending, "", createdBefore).
		Updates(map[string]any{"status": models.OrderStatusCancelled})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) CountOrders(ctx context.Context, status models.OrderStatus) (int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *GormRepo) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", models.OrderStatusCompleted).
		Select("SUM(total_amount)").
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
