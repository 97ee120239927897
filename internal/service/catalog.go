package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

// ProductIndex is the external search index; nil means SQL search.
type ProductIndex interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  ProductIndex
	Events EventPublisher
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if isNotFound(err) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *CatalogService) ListProducts(ctx context.Context, category string, offset, limit int) ([]models.Product, int64, error) {
	return s.Repo.ListProducts(ctx, category, offset, limit)
}

func (s *CatalogService) Search(ctx context.Context, query string, offset, limit int) ([]models.Product, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, fmt.Errorf("query is required: %w", ErrValidation)
	}
	if s.Index != nil {
		total, prods, err := s.Index.Search(ctx, query, offset, limit)
		if err == nil {
			return prods, total, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "error", err)
	}
	return s.Repo.SearchProducts(ctx, query, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.ProductRequest) (*models.Product, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if req.OriginalPrice == nil {
		return nil, fmt.Errorf("originalPrice is required: %w", ErrValidation)
	}

	p := &models.Product{InStock: true, ImageURLs: []string{}}
	if err := applyProductRequest(p, req); err != nil {
		return nil, err
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.sync(ctx, p, "product_created")
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.ProductRequest) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProductRequest(p, req); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	s.sync(ctx, p, "product_updated")
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return err
	}
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_delete_error", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, mykafka.TopicProduct, id.String(), ProductEvent{
		Type: "product_deleted", ProductID: id.String(), At: time.Now().UTC(),
	})
	return nil
}

func (s *CatalogService) sync(ctx context.Context, p *models.Product, event string) {
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, p); err != nil {
			logging.FromContext(ctx).Warn("search_index_error", "product_id", p.ID, "error", err)
		}
	}
	publish(ctx, s.Events, mykafka.TopicProduct, p.ID.String(), ProductEvent{
		Type: event, ProductID: p.ID.String(), Price: p.Price.String(), At: time.Now().UTC(),
	})
}

// applyProductRequest copies the set fields and recomputes the price.
func applyProductRequest(p *models.Product, req transport.ProductRequest) error {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.OriginalPrice != nil {
		if req.OriginalPrice.IsNegative() {
			return fmt.Errorf("originalPrice cannot be negative: %w", ErrValidation)
		}
		p.OriginalPrice = *req.OriginalPrice
	}
	if req.Discount != nil {
		if !pricing.ValidDiscount(*req.Discount) {
			return fmt.Errorf("discount must be between 0 and 100: %w", ErrValidation)
		}
		p.Discount = *req.Discount
	}
	if req.InStock != nil {
		p.InStock = *req.InStock
	}
	if req.IsNew != nil {
		p.IsNew = *req.IsNew
	}
	if req.ImageURLs != nil {
		p.ImageURLs = *req.ImageURLs
	}
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}

	p.Price = pricing.ProductPrice(p.OriginalPrice, p.Discount)
	return nil
}
