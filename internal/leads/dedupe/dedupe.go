// Package dedupe suppresses repeated submissions of the same inquiry within
// a short window, so a double-clicked form creates one lead.
package dedupe

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"property_portal_backend/internal/leads/intake"
	"property_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const (
	keyPrefix      = "leads:dedupe:"
	pendingMarker  = "pending"
	DefaultWindow  = 10 * time.Minute
	maxPendingHold = time.Minute
)

// ErrInFlight is returned while an identical submission is still being
// processed.
var ErrInFlight = inFlightError{}

type inFlightError struct{}

func (inFlightError) Error() string        { return "an identical submission is already being processed" }
func (inFlightError) AppKind() apperr.Kind { return apperr.KindConflict }

// Deduper reserves a fingerprint before a lead is created.
type Deduper interface {
	// Reserve claims key. When key already maps to a created lead, that
	// lead's id is returned and nothing is reserved.
	Reserve(ctx context.Context, key string) (*uuid.UUID, error)
	// Confirm records the lead created under a reserved key.
	Confirm(ctx context.Context, key string, leadID uuid.UUID) error
	// Release drops a reservation whose submission failed.
	Release(ctx context.Context, key string) error
}

// Fingerprint identifies a canonical submission. Name and source are left
// out so a resubmission with a corrected name still counts as a duplicate.
func Fingerprint(c intake.Candidate) string {
	project := ""
	if c.ProjectID != nil {
		project = c.ProjectID.String()
	}
	message := ""
	if c.Message != nil {
		message = *c.Message
	}
	sum := blake2b.Sum256([]byte(strings.Join([]string{c.Email, c.PhoneDigits, project, message}, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// Redis stores reservations as keys that expire after the window.
type Redis struct {
	client *redis.Client
	window time.Duration
}

// NewRedis creates a Redis-backed deduper.
func NewRedis(client *redis.Client, window time.Duration) *Redis {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Redis{client: client, window: window}
}

func (r *Redis) Reserve(ctx context.Context, key string) (*uuid.UUID, error) {
	k := keyPrefix + key
	ok, err := r.client.SetNX(ctx, k, pendingMarker, min(r.window, maxPendingHold)).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}

	val, err := r.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between the two calls; try once more.
		ok, err = r.client.SetNX(ctx, k, pendingMarker, min(r.window, maxPendingHold)).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return nil, nil
		}
		return nil, ErrInFlight
	}
	if err != nil {
		return nil, err
	}
	if val == pendingMarker {
		return nil, ErrInFlight
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (r *Redis) Confirm(ctx context.Context, key string, leadID uuid.UUID) error {
	return r.client.Set(ctx, keyPrefix+key, leadID.String(), r.window).Err()
}

func (r *Redis) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}

// Noop accepts every submission.
type Noop struct{}

func (Noop) Reserve(context.Context, string) (*uuid.UUID, error) { return nil, nil }
func (Noop) Confirm(context.Context, string, uuid.UUID) error    { return nil }
func (Noop) Release(context.Context, string) error               { return nil }

var (
	_ Deduper = (*Redis)(nil)
	_ Deduper = Noop{}
)
