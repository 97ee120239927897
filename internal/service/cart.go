package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/repo"
)

const maxCartAttempts = 5

var (
	errNoCart    = errors.New("no cart")
	errUnchanged = errors.New("cart unchanged")
)

type CartService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

// Get returns the user's cart, or an empty one if none was ever created.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Repo.GetCart(ctx, userID)
	if isNotFound(err) {
		return emptyCart(userID), nil
	}
	return cart, err
}

// ApplyDelta adds delta units of a product; a negative delta decreases it.
func (s *CartService) ApplyDelta(ctx context.Context, userID, productID uuid.UUID, delta int) (cart *models.Cart, err error) {
	defer func() { metrics.CartMutations.WithLabelValues("apply_delta", metrics.Result(err)).Inc() }()

	if delta == 0 {
		return nil, fmt.Errorf("quantity must not be zero: %w", ErrValidation)
	}
	if productID == uuid.Nil {
		return nil, fmt.Errorf("productId is required: %w", ErrValidation)
	}

	product, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return nil, err
	}
	if delta > 0 && !product.InStock {
		return nil, fmt.Errorf("product %s is out of stock: %w", productID, ErrInvalidOperation)
	}

	cart, err = s.mutate(ctx, userID, true, func(c *models.Cart) error {
		return applyDelta(c, productID, delta, product.Price)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicCart, userID.String(), CartEvent{
		Type: "cart_updated", UserID: userID.String(), ProductID: productID.String(), Delta: delta,
		Total: cart.TotalPrice.String(), Revision: cart.Revision, At: time.Now().UTC(),
	})
	return cart, nil
}

// Remove drops the line for productID. A missing line is not an error.
func (s *CartService) Remove(ctx context.Context, userID, productID uuid.UUID) (cart *models.Cart, err error) {
	defer func() { metrics.CartMutations.WithLabelValues("remove", metrics.Result(err)).Inc() }()

	if productID == uuid.Nil {
		return nil, fmt.Errorf("productId is required: %w", ErrValidation)
	}

	cart, err = s.mutate(ctx, userID, false, func(c *models.Cart) error {
		if !removeLine(c, productID) {
			return errUnchanged
		}
		return nil
	})
	if errors.Is(err, errNoCart) {
		return nil, fmt.Errorf("cart of user %s: %w", userID, ErrNotFound)
	}
	if errors.Is(err, errUnchanged) {
		return cart, nil
	}
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicCart, userID.String(), CartEvent{
		Type: "cart_item_removed", UserID: userID.String(), ProductID: productID.String(),
		Total: cart.TotalPrice.String(), Revision: cart.Revision, At: time.Now().UTC(),
	})
	return cart, nil
}

// Clear empties the cart. Clearing a user without a cart succeeds.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (cart *models.Cart, err error) {
	defer func() { metrics.CartMutations.WithLabelValues("clear", metrics.Result(err)).Inc() }()

	cart, err = s.mutate(ctx, userID, false, func(c *models.Cart) error {
		c.Items = []models.CartLine{}
		c.TotalPrice = decimal.Zero
		return nil
	})
	if errors.Is(err, errNoCart) {
		return emptyCart(userID), nil
	}
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicCart, userID.String(), CartEvent{
		Type: "cart_cleared", UserID: userID.String(),
		Total: cart.TotalPrice.String(), Revision: cart.Revision, At: time.Now().UTC(),
	})
	return cart, nil
}

// mutate loads the cart, applies fn and writes it back guarded by the revision.
// A lost race reloads and retries; create allows the first insert.
func (s *CartService) mutate(ctx context.Context, userID uuid.UUID, create bool, fn func(*models.Cart) error) (*models.Cart, error) {
	for attempt := 0; attempt < maxCartAttempts; attempt++ {
		cart, err := s.Repo.GetCart(ctx, userID)
		fresh := false
		switch {
		case isNotFound(err):
			if !create {
				return nil, errNoCart
			}
			cart, fresh = emptyCart(userID), true
		case err != nil:
			return nil, err
		}

		if err := fn(cart); err != nil {
			if errors.Is(err, errUnchanged) {
				return cart, err
			}
			return nil, err
		}

		if fresh {
			err = s.Repo.InsertCart(ctx, cart)
		} else {
			err = s.Repo.SaveCart(ctx, cart)
		}
		if errors.Is(err, repo.ErrStaleRevision) || errors.Is(err, repo.ErrDuplicate) {
			metrics.CartConflicts.Inc()
			continue
		}
		if err != nil {
			return nil, err
		}
		return cart, nil
	}
	return nil, fmt.Errorf("cart of user %s changed concurrently: %w", userID, ErrConflict)
}

// applyDelta changes the cart in place only when the result is valid.
func applyDelta(c *models.Cart, productID uuid.UUID, delta int, price decimal.Decimal) error {
	i, ok := c.Line(productID)
	if !ok {
		if delta < 0 {
			return fmt.Errorf("no such item to decrease: %w", ErrInvalidOperation)
		}
		c.Items = append(c.Items, models.CartLine{ProductID: productID, Quantity: delta, Price: price})
		c.TotalPrice = pricing.CartTotal(c.Items)
		return nil
	}

	qty := c.Items[i].Quantity + delta
	switch {
	case qty < 0:
		return fmt.Errorf("cannot decrease below zero: %w", ErrInvalidOperation)
	case qty == 0:
		removeLine(c, productID)
		return nil
	}
	c.Items[i].Quantity = qty
	c.Items[i].Price = price
	c.TotalPrice = pricing.CartTotal(c.Items)
	return nil
}

// removeLine reports whether the cart held productID.
func removeLine(c *models.Cart, productID uuid.UUID) bool {
	i, ok := c.Line(productID)
	if !ok {
		return false
	}
	kept := make([]models.CartLine, 0, len(c.Items)-1)
	kept = append(kept, c.Items[:i]...)
	c.Items = append(kept, c.Items[i+1:]...)
	c.TotalPrice = pricing.CartTotal(c.Items)
	return true
}

func emptyCart(userID uuid.UUID) *models.Cart {
	return &models.Cart{UserID: userID, Items: []models.CartLine{}, TotalPrice: decimal.Zero}
}
