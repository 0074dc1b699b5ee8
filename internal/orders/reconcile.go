package orders

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/kickfinderz-backend/pkg/errors"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Reconciler cancels orders left without lines by a checkout that failed
// after the order row was written. It never runs implicitly.
type Reconciler struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewReconciler(repo Repository, logg *logger.Logger) (*Reconciler, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Reconciler{repo: repo, logg: logg, now: time.Now}, nil
}

// ReconcileOrphans cancels processing orders with zero lines created more
// than olderThan ago and returns the ids it cancelled. Orders that gained
// lines or changed status since the scan are skipped.
func (r *Reconciler) ReconcileOrphans(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error) {
	if olderThan <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "older_than must be positive")
	}
	cutoff := r.now().UTC().Add(-olderThan)

	orphans, err := r.repo.FindOrphansBefore(ctx, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to scan orphaned orders")
	}

	cancelled := make([]uuid.UUID, 0, len(orphans))
	var errs error
	for _, order := range orphans {
		octx := r.logg.WithOrderID(ctx, order.ID.String())
		changed, err := r.repo.CancelOrphan(octx, order.ID)
		if err != nil {
			r.logg.Error(octx, "failed to cancel orphaned order", err)
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		if !changed {
			continue
		}
		r.logg.Warn(octx, "cancelled orphaned order without lines")
		cancelled = append(cancelled, order.ID)
	}

	if errs != nil {
		return cancelled, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "some orphaned orders could not be cancelled")
	}
	return cancelled, nil
}
