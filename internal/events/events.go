// Package events publishes workflow lifecycle events over Redis Pub/Sub
//
// Events are observability signals only; no control decision is ever made
// from them. Because the two workflow phases run as independent
// invocations, an in-process hub cannot carry events between them, so the
// hub rides on the same Redis connection as the checkpoint store
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/signoff-io/signoff/pkg/api"
	"github.com/signoff-io/signoff/pkg/log"
)

type (
	// Type identifies a workflow lifecycle event
	Type string

	// Event describes a single workflow state change
	Event struct {
		Type       Type           `json:"type"`
		WorkflowID api.WorkflowID `json:"workflow_id"`
		ReportID   api.ReportID   `json:"report_id"`
		Status     api.Status     `json:"status"`
		At         time.Time      `json:"at"`
	}

	// Publisher emits lifecycle events; failures are logged, never fatal
	Publisher interface {
		Publish(ctx context.Context, ev *Event)
	}

	// RedisHub implements Publisher over a Redis Pub/Sub channel and
	// fans events out to in-process subscribers
	RedisHub struct {
		client  *redis.Client
		channel string
	}
)

const (
	TypeWorkflowSubmitted Type = "workflow_submitted"
	TypeWorkflowSuspended Type = "workflow_suspended"
	TypeWorkflowApproved  Type = "workflow_approved"
	TypeWorkflowRejected  Type = "workflow_rejected"
	TypePaymentProcessed  Type = "payment_processed"
)

var _ Publisher = (*RedisHub)(nil)

// NewRedisHub creates an event hub publishing to "<prefix>:events"
func NewRedisHub(client *redis.Client, prefix string) *RedisHub {
	return &RedisHub{
		client:  client,
		channel: prefix + ":events",
	}
}

// NewEvent builds an event for a checkpoint at its current status
func NewEvent(typ Type, cp *api.Checkpoint) *Event {
	return &Event{
		Type:       typ,
		WorkflowID: cp.WorkflowID,
		ReportID:   cp.ReportID,
		Status:     cp.Status,
		At:         time.Now().UTC(),
	}
}

func (h *RedisHub) Publish(ctx context.Context, ev *Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal event", log.Error(err))
		return
	}
	if err := h.client.Publish(ctx, h.channel, data).Err(); err != nil {
		slog.Error("Failed to publish event",
			log.WorkflowID(ev.WorkflowID),
			log.Error(err))
	}
}

// Subscribe delivers events until the context is canceled. The returned
// close function must be called to release the underlying subscription
func (h *RedisHub) Subscribe(
	ctx context.Context,
) (<-chan *Event, func() error) {
	sub := h.client.Subscribe(ctx, h.channel)
	out := make(chan *Event)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Error("Failed to unmarshal event", log.Error(err))
				continue
			}
			select {
			case out <- &ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, sub.Close
}

// Channel returns the Pub/Sub channel name, primarily for diagnostics
func (h *RedisHub) Channel() string {
	return h.channel
}

// String implements fmt.Stringer for log output
func (e Event) String() string {
	return fmt.Sprintf("%s(%s)", e.Type, e.WorkflowID)
}
