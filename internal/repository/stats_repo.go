package repository

import (
	"context"

	"commust/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardStats untuk overview stats
type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	Published      int64           `json:"published"`
	InStock        int64           `json:"in_stock"`
	OutOfStock     int64           `json:"out_of_stock"`
	OnBackorder    int64           `json:"on_backorder"`
	Untracked      int64           `json:"untracked"`
	LowStockCount  int64           `json:"low_stock_count"`
	CorruptStock   int64           `json:"corrupt_stock"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

type StatsRepository interface {
	GetDashboardStats(ctx context.Context, lowStockThreshold int) (*DashboardStats, error)
}

type statsRepo struct {
	db *gorm.DB
}

func NewStatsRepo(db *gorm.DB) StatsRepository {
	return &statsRepo{db}
}

type statusCount struct {
	Status string
	Total  int64
}

func (r *statsRepo) GetDashboardStats(ctx context.Context, lowStockThreshold int) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	// Total Products
	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("status = ?", model.StatusPublish).Count(&stats.Published).Error; err != nil {
		return nil, err
	}

	// Products per stock status
	var counts []statusCount
	if err := db.Model(&model.PostMeta{}).
		Select("meta_value AS status, COUNT(*) AS total").
		Where("meta_key = ?", model.MetaStockStatus).
		Group("meta_value").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	var tracked int64
	for _, c := range counts {
		tracked += c.Total
		s, err := model.ParseStockStatus(c.Status)
		if err != nil {
			continue
		}
		switch s {
		case model.InStock:
			stats.InStock = c.Total
		case model.OutOfStock:
			stats.OutOfStock = c.Total
		case model.OnBackorder:
			stats.OnBackorder = c.Total
		}
	}
	stats.Untracked = stats.TotalProducts - tracked

	// Low stock and valuation are computed in Go; stored values are free text.
	var metas []model.PostMeta
	if err := db.
		Where("meta_key IN ?", []string{model.MetaStock, model.MetaRegularPrice, model.MetaSalePrice}).
		Find(&metas).Error; err != nil {
		return nil, err
	}
	byProduct := make(map[uuid.UUID]map[string]string)
	for _, pm := range metas {
		if byProduct[pm.ProductID] == nil {
			byProduct[pm.ProductID] = make(map[string]string, 3)
		}
		byProduct[pm.ProductID][pm.MetaKey] = pm.MetaValue
	}

	stats.TotalValuation = decimal.Zero
	for _, kv := range byProduct {
		raw, ok := kv[model.MetaStock]
		if !ok {
			continue
		}
		qty, err := model.ParseStock(raw)
		if err != nil {
			stats.CorruptStock++
			continue
		}
		if qty < lowStockThreshold {
			stats.LowStockCount++
		}
		price, ok := priceOf(kv)
		if ok && qty > 0 {
			stats.TotalValuation = stats.TotalValuation.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		}
	}

	return &stats, nil
}

func priceOf(kv map[string]string) (decimal.Decimal, bool) {
	for _, key := range []string{model.MetaSalePrice, model.MetaRegularPrice} {
		if raw, ok := kv[key]; ok {
			if d, err := decimal.NewFromString(raw); err == nil {
				return d, true
			}
		}
	}
	return decimal.Zero, false
}
