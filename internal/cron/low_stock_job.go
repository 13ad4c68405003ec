package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fiscal-ledger/pkg/db/models"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
)

// LowStockJobName identifies the low stock report.
const LowStockJobName = "low-stock-report"

type lowStockReader interface {
	LowStock(ctx context.Context, limit int) ([]models.Product, error)
}

// NewLowStockJob logs a warning for every product at or below limit units.
func NewLowStockJob(logg *logger.Logger, catalog lowStockReader, limit int) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	return &lowStockJob{logg: logg, catalog: catalog, limit: limit}, nil
}

type lowStockJob struct {
	logg    *logger.Logger
	catalog lowStockReader
	limit   int
}

func (j *lowStockJob) Name() string { return LowStockJobName }

func (j *lowStockJob) Run(ctx context.Context) error {
	products, err := j.catalog.LowStock(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("low stock report: %w", err)
	}
	for _, product := range products {
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"product":  product.Name,
			"on_hand":  product.OnHand,
			"location": product.Location,
		}), "product stock is low")
	}
	j.logg.Info(j.logg.WithField(ctx, "products_low", len(products)), "low stock report complete")
	return nil
}
