// Package maintenance holds the background jobs that keep lead ownership
// healthy: reconciling cached open-lead counts and draining the unassigned
// pool.
package maintenance

import (
	"context"
	"fmt"

	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/repository"
	"property_portal_backend/platform/logger"
)

// Reconciler recomputes every agent's open_lead_count from the lead rows.
type Reconciler struct {
	store repository.CountReconciler
	log   *logger.Logger
}

func NewReconciler(store repository.CountReconciler, log *logger.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// Run heals drift and returns the agents whose cached count was wrong.
func (r *Reconciler) Run(ctx context.Context) ([]domain.CountDrift, error) {
	if r == nil || r.store == nil {
		return nil, fmt.Errorf("reconciler not configured")
	}

	drift, err := r.store.ReconcileOpenLeadCounts(ctx)
	if err != nil {
		r.log.DatabaseError("reconcile open lead counts", err)
		return nil, domain.Storage("reconcile open lead counts", err)
	}

	for _, d := range drift {
		r.log.Warn("open lead count drift corrected",
			"agentId", d.AgentID,
			"cached", d.Cached,
			"recorded", d.Recorded,
		)
	}
	return drift, nil
}
