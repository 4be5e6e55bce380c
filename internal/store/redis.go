package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/signoff-io/signoff/pkg/api"
)

// RedisStore implements CheckpointStore using one Redis hash per checkpoint
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ CheckpointStore = (*RedisStore)(nil)

// updateIfScript atomically applies a field update only when the stored
// status matches ARGV[1]. Returns 1 on success, 0 when the precondition
// fails, and -1 when the checkpoint does not exist
var updateIfScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
if redis.call("HGET", KEYS[1], "status") ~= ARGV[1] then
	return 0
end
for i = 2, #ARGV, 2 do
	redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
end
return 1
`)

// NewRedisStore creates a checkpoint store backed by the given Redis client
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) Create(ctx context.Context, cp *api.Checkpoint) error {
	key := s.key(cp.WorkflowID)

	created, err := s.client.HSetNX(
		ctx, key, "workflow_id", string(cp.WorkflowID),
	).Result()
	if err != nil {
		return fmt.Errorf("store: create checkpoint: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, cp.WorkflowID)
	}

	if err := s.client.HSet(ctx, key, checkpointToMap(cp)).Err(); err != nil {
		return fmt.Errorf("store: create checkpoint: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(
	ctx context.Context, id api.WorkflowID,
) (*api.Checkpoint, error) {
	vals, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: get checkpoint: %w", err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return mapToCheckpoint(vals)
}

func (s *RedisStore) UpdateStatus(
	ctx context.Context, id api.WorkflowID, status api.Status,
	step string, fields Fields,
) error {
	key := s.key(id)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("store: update status: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := s.client.HSet(
		ctx, key, updateToMap(status, step, fields),
	).Err(); err != nil {
		return fmt.Errorf("store: update status: %w", err)
	}
	return nil
}

func (s *RedisStore) UpdateStatusIf(
	ctx context.Context, id api.WorkflowID, expected api.Status,
	status api.Status, step string, fields Fields,
) error {
	argv := []any{string(expected)}
	for field, value := range updateToMap(status, step, fields) {
		argv = append(argv, field, value)
	}

	res, err := updateIfScript.Run(
		ctx, s.client, []string{s.key(id)}, argv...,
	).Int()
	if err != nil {
		return fmt.Errorf("store: conditional update: %w", err)
	}

	switch res {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("%w: %s", ErrPreconditionFailed, id)
	default:
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
}

// Ping verifies store connectivity for health checks
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) key(id api.WorkflowID) string {
	return s.prefix + ":checkpoint:" + string(id)
}

func updateToMap(
	status api.Status, step string, fields Fields,
) map[string]string {
	m := map[string]string{
		"status":       string(status),
		"current_step": step,
		"updated_at":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if fields.SuspendedAt != nil {
		m["suspended_at"] = fields.SuspendedAt.Format(time.RFC3339Nano)
	}
	if fields.ResumedAt != nil {
		m["resumed_at"] = fields.ResumedAt.Format(time.RFC3339Nano)
	}
	if fields.RejectionReason != "" {
		m["rejection_reason"] = fields.RejectionReason
	} else if fields.ClearRejectionReason {
		m["rejection_reason"] = ""
	}
	return m
}

func checkpointToMap(cp *api.Checkpoint) map[string]any {
	m := map[string]any{
		"workflow_id":    string(cp.WorkflowID),
		"report_id":      string(cp.ReportID),
		"status":         string(cp.Status),
		"payload":        string(cp.Payload),
		"approval_token": string(cp.ApprovalToken),
		"current_step":   cp.CurrentStep,
		"created_at":     cp.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":     cp.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if cp.SuspendedAt != nil {
		m["suspended_at"] = cp.SuspendedAt.UTC().Format(time.RFC3339Nano)
	}
	if cp.ResumedAt != nil {
		m["resumed_at"] = cp.ResumedAt.UTC().Format(time.RFC3339Nano)
	}
	if cp.RejectionReason != "" {
		m["rejection_reason"] = cp.RejectionReason
	}
	return m
}

func mapToCheckpoint(m map[string]string) (*api.Checkpoint, error) {
	createdAt, err := parseTime(m["created_at"])
	if err != nil {
		return nil, fmt.Errorf("store: parse created_at: %w", err)
	}
	updatedAt, err := parseTime(m["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("store: parse updated_at: %w", err)
	}

	cp := &api.Checkpoint{
		WorkflowID:      api.WorkflowID(m["workflow_id"]),
		ReportID:        api.ReportID(m["report_id"]),
		Status:          api.Status(m["status"]),
		Payload:         json.RawMessage(m["payload"]),
		ApprovalToken:   api.Token(m["approval_token"]),
		CurrentStep:     m["current_step"],
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
		RejectionReason: m["rejection_reason"],
	}

	if v := m["suspended_at"]; v != "" {
		t, err := parseTime(v)
		if err != nil {
			return nil, fmt.Errorf("store: parse suspended_at: %w", err)
		}
		cp.SuspendedAt = &t
	}
	if v := m["resumed_at"]; v != "" {
		t, err := parseTime(v)
		if err != nil {
			return nil, fmt.Errorf("store: parse resumed_at: %w", err)
		}
		cp.ResumedAt = &t
	}
	return cp, nil
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
