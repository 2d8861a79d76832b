package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/kitchenpos-backend/internal/costing"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
)

// NewRecostJob rebuilds the cached cost of every active product.
func NewRecostJob(svc costing.Service, logg *logger.Logger) (Job, error) {
	if svc == nil {
		return nil, fmt.Errorf("costing service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &recostJob{svc: svc, logg: logg}, nil
}

type recostJob struct {
	svc  costing.Service
	logg *logger.Logger
}

func (j *recostJob) Name() string { return "recost" }

func (j *recostJob) Run(ctx context.Context) error {
	summary, err := j.svc.RecomputeAll(ctx)
	if summary != nil {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"processed": summary.Processed,
			"failed":    summary.Failed,
		}), "product costs recomputed")
	}
	if err != nil {
		return fmt.Errorf("recompute costs: %w", err)
	}
	return nil
}
