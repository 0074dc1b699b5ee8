package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/google/uuid"
)

type orphanReconciler interface {
	ReconcileOrphans(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error)
}

// OrphanOrdersJobParams configure the orphaned order sweep.
type OrphanOrdersJobParams struct {
	Logger     *logger.Logger
	Reconciler orphanReconciler
	MaxAge     time.Duration
}

// NewOrphanOrdersJob builds the job that cancels processing orders whose
// lines were never written. MaxAge keeps in-flight checkouts out of reach.
func NewOrphanOrdersJob(params OrphanOrdersJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if params.MaxAge <= 0 {
		return nil, fmt.Errorf("max age must be positive")
	}
	return &orphanOrdersJob{
		logg:       params.Logger,
		reconciler: params.Reconciler,
		maxAge:     params.MaxAge,
	}, nil
}

type orphanOrdersJob struct {
	logg       *logger.Logger
	reconciler orphanReconciler
	maxAge     time.Duration
}

func (j *orphanOrdersJob) Name() string { return "orphan-orders" }

func (j *orphanOrdersJob) Run(ctx context.Context) error {
	cancelled, err := j.reconciler.ReconcileOrphans(ctx, j.maxAge)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cancelled":       len(cancelled),
		"max_age_minutes": int(j.maxAge.Minutes()),
	})
	if err != nil {
		return err
	}
	j.logg.Info(logCtx, "orphaned order sweep complete")
	return nil
}
