package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
)

// OverdueSweepJobName identifies the invoice sweep in logs and metrics.
const OverdueSweepJobName = "overdue-sweep"

type overdueMarker interface {
	MarkOverdueAutomatically(ctx context.Context) (int64, error)
}

// NewOverdueSweepJob flips pending invoices past their due date to overdue.
func NewOverdueSweepJob(logg *logger.Logger, invoices overdueMarker) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice service required")
	}
	return &overdueSweepJob{logg: logg, invoices: invoices}, nil
}

type overdueSweepJob struct {
	logg     *logger.Logger
	invoices overdueMarker
}

func (j *overdueSweepJob) Name() string { return OverdueSweepJobName }

func (j *overdueSweepJob) Run(ctx context.Context) error {
	count, err := j.invoices.MarkOverdueAutomatically(ctx)
	if err != nil {
		return fmt.Errorf("overdue sweep: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "invoices_marked", count), "overdue sweep complete")
	return nil
}
