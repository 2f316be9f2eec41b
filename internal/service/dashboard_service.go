package service

import (
	"context"

	"commust/internal/repository"
)

// Products with fewer units than this count as low stock.
const lowStockThreshold = 5

type DashboardService interface {
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	statsRepo repository.StatsRepository
}

func NewDashboardService(statsRepo repository.StatsRepository) DashboardService {
	return &dashboardService{statsRepo: statsRepo}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.statsRepo.GetDashboardStats(ctx, lowStockThreshold)
}
