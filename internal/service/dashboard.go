package service

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type DashboardService struct {
	Repo *repo.GormRepo
}

func (s *DashboardService) Stats(ctx context.Context) (*transport.DashboardStats, error) {
	var (
		out transport.DashboardStats
		err error
	)
	if out.TotalUsers, err = s.Repo.CountUsers(ctx); err != nil {
		return nil, err
	}
	if out.TotalProducts, err = s.Repo.CountProducts(ctx); err != nil {
		return nil, err
	}
	if out.TotalOrders, err = s.Repo.CountOrders(ctx, ""); err != nil {
		return nil, err
	}
	if out.PendingOrders, err = s.Repo.CountOrders(ctx, models.OrderStatusPending); err != nil {
		return nil, err
	}
	if out.TotalRevenue, err = s.Repo.Revenue(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}
