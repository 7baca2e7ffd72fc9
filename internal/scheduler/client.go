package scheduler

import (
	"context"
	"fmt"
	"time"

	"property_portal_backend/platform/config"
	"property_portal_backend/platform/redisx"

	"github.com/hibiken/asynq"
)

const notifyMaxRetry = 5

type Client struct {
	client *asynq.Client
	queue  string
}

// NotificationEnqueuer queues lead notifications for the worker.
type NotificationEnqueuer interface {
	EnqueueLeadNotification(ctx context.Context, payload LeadNotifyPayload) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) EnqueueLeadNotification(ctx context.Context, payload LeadNotifyPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewLeadNotifyTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(notifyMaxRetry),
		asynq.Retention(24*time.Hour),
	)
	return err
}

// EnqueueDrain asks the worker for an immediate drain pass.
func (c *Client) EnqueueDrain(ctx context.Context, batchSize int) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewDrainUnassignedTask(DrainUnassignedPayload{BatchSize: batchSize})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	if q := cfg.GetAsynqQueueName(); q != "" {
		return q
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redisx.ParseOptions(redisURL, tlsInsecure)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

var _ NotificationEnqueuer = (*Client)(nil)
