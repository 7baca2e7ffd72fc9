package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskLeadNotify = "leads.notify"

const TaskDrainUnassigned = "leads.drain_unassigned"

const TaskReconcileCounts = "leads.reconcile_counts"

// LeadNotifyPayload describes one lead event that someone may need to hear about.
type LeadNotifyPayload struct {
	Event      string    `json:"event"`
	LeadID     string    `json:"leadId"`
	AgentID    string    `json:"agentId,omitempty"`
	FromStatus string    `json:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type DrainUnassignedPayload struct {
	BatchSize int `json:"batchSize"`
}

func NewLeadNotifyTask(payload LeadNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadNotify, data), nil
}

func ParseLeadNotifyPayload(task *asynq.Task) (LeadNotifyPayload, error) {
	var payload LeadNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadNotifyPayload{}, err
	}
	return payload, nil
}

func NewDrainUnassignedTask(payload DrainUnassignedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDrainUnassigned, data), nil
}

func ParseDrainUnassignedPayload(task *asynq.Task) (DrainUnassignedPayload, error) {
	var payload DrainUnassignedPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DrainUnassignedPayload{}, err
	}
	return payload, nil
}

func NewReconcileCountsTask() *asynq.Task {
	return asynq.NewTask(TaskReconcileCounts, nil)
}
