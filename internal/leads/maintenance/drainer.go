package maintenance

import (
	"context"
	"errors"
	"fmt"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/repository"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const defaultDrainBatch = 50

// PendingAssigner assigns one lead from the unassigned pool.
type PendingAssigner interface {
	AssignExisting(ctx context.Context, leadID uuid.UUID) (domain.Lead, bool, error)
}

// Drainer hands unassigned leads to agents, oldest first.
type Drainer struct {
	leads    repository.UnassignedReader
	assigner PendingAssigner
	bus      events.Publisher
	log      *logger.Logger
}

// DrainRunResult summarizes one drain pass.
type DrainRunResult struct {
	Scanned  int  `json:"scanned"`
	Assigned int  `json:"assigned"`
	Skipped  int  `json:"skipped"`
	NoAgent  bool `json:"noAgentAvailable"`
}

func NewDrainer(leads repository.UnassignedReader, assigner PendingAssigner, bus events.Publisher, log *logger.Logger) *Drainer {
	return &Drainer{leads: leads, assigner: assigner, bus: bus, log: log}
}

// Run assigns up to batch pending leads. It stops early, without error, as
// soon as no agent is active; the remaining leads stay in the pool.
func (d *Drainer) Run(ctx context.Context, batch int) (DrainRunResult, error) {
	if d == nil || d.leads == nil || d.assigner == nil {
		return DrainRunResult{}, fmt.Errorf("drainer not configured")
	}
	if batch <= 0 {
		batch = defaultDrainBatch
	}

	pending, err := d.leads.ListUnassigned(ctx, batch)
	if err != nil {
		return DrainRunResult{}, domain.Storage("list unassigned leads", err)
	}

	var res DrainRunResult
	for _, lead := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Scanned++

		assigned, ok, err := d.assigner.AssignExisting(ctx, lead.ID)
		switch {
		case errors.Is(err, domain.ErrNoAgentAvailable):
			res.NoAgent = true
			d.log.Warn("unassigned pool drain stopped: no active agent", "pending", len(pending)-res.Assigned)
			return res, nil
		case err != nil:
			return res, err
		case !ok:
			res.Skipped++
			continue
		}

		res.Assigned++
		d.bus.Publish(ctx, events.LeadAssigned{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    assigned.ID,
			AgentID:   *assigned.AgentID,
			Actor:     domain.ActorSystem,
		})
	}

	if res.Assigned > 0 {
		d.log.Info("unassigned pool drained", "assigned", res.Assigned, "skipped", res.Skipped)
	}
	return res, nil
}
