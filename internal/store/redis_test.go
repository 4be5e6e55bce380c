package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signoff-io/signoff/internal/store"
	"github.com/signoff-io/signoff/pkg/api"
)

func newTestStore(t *testing.T) *store.RedisStore {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return store.NewRedisStore(client, "test")
}

func newCheckpoint(t *testing.T) *api.Checkpoint {
	t.Helper()
	created := time.Now().UTC().Add(-time.Hour)
	return api.NewCheckpoint(
		api.NewReportID(),
		json.RawMessage(`{"schema_version":1,"amount":"150.00"}`),
		created,
	)
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cp := newCheckpoint(t)

	require.NoError(t, s.Create(ctx, cp))

	got, err := s.Get(ctx, cp.WorkflowID)
	require.NoError(t, err)

	assert.Equal(t, cp.WorkflowID, got.WorkflowID)
	assert.Equal(t, cp.ReportID, got.ReportID)
	assert.Equal(t, api.StatusSubmitted, got.Status)
	assert.Equal(t, cp.ApprovalToken, got.ApprovalToken)
	assert.JSONEq(t, string(cp.Payload), string(got.Payload))
	assert.True(t, cp.CreatedAt.Equal(got.CreatedAt))
	assert.Nil(t, got.SuspendedAt)
	assert.Nil(t, got.ResumedAt)
}

func TestCreateDuplicateFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cp := newCheckpoint(t)

	require.NoError(t, s.Create(ctx, cp))
	assert.ErrorIs(t, s.Create(ctx, cp), store.ErrAlreadyExists)
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "workflow-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateStatusRefreshesUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cp := newCheckpoint(t)
	require.NoError(t, s.Create(ctx, cp))

	suspendedAt := time.Now().UTC()
	require.NoError(t, s.UpdateStatus(
		ctx, cp.WorkflowID, api.StatusPendingApproval,
		api.StepAwaitingApproval,
		store.Fields{SuspendedAt: &suspendedAt},
	))

	got, err := s.Get(ctx, cp.WorkflowID)
	require.NoError(t, err)

	assert.Equal(t, api.StatusPendingApproval, got.Status)
	assert.Equal(t, api.StepAwaitingApproval, got.CurrentStep)
	require.NotNil(t, got.SuspendedAt)
	assert.True(t, suspendedAt.Equal(*got.SuspendedAt))
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	// The payload is write-once and survives partial updates untouched
	assert.JSONEq(t, string(cp.Payload), string(got.Payload))
}

func TestUpdateStatusMissing(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateStatus(
		context.Background(), "workflow-missing",
		api.StatusPendingApproval, api.StepAwaitingApproval, store.Fields{},
	)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateStatusIf(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cp := newCheckpoint(t)
	require.NoError(t, s.Create(ctx, cp))

	suspendedAt := time.Now().UTC()
	require.NoError(t, s.UpdateStatus(
		ctx, cp.WorkflowID, api.StatusPendingApproval,
		api.StepAwaitingApproval,
		store.Fields{SuspendedAt: &suspendedAt},
	))

	resumedAt := time.Now().UTC()

	t.Run("succeeds when status matches", func(t *testing.T) {
		err := s.UpdateStatusIf(
			ctx, cp.WorkflowID, api.StatusPendingApproval,
			api.StatusApproved, api.StepProcessingPay,
			store.Fields{ResumedAt: &resumedAt},
		)
		require.NoError(t, err)

		got, err := s.Get(ctx, cp.WorkflowID)
		require.NoError(t, err)
		assert.Equal(t, api.StatusApproved, got.Status)
		require.NotNil(t, got.ResumedAt)
		assert.True(t, resumedAt.Equal(*got.ResumedAt))
	})

	t.Run("fails precondition once status changed", func(t *testing.T) {
		err := s.UpdateStatusIf(
			ctx, cp.WorkflowID, api.StatusPendingApproval,
			api.StatusRejected, api.StepRejected,
			store.Fields{ResumedAt: &resumedAt},
		)
		assert.ErrorIs(t, err, store.ErrPreconditionFailed)

		got, err := s.Get(ctx, cp.WorkflowID)
		require.NoError(t, err)
		assert.Equal(t, api.StatusApproved, got.Status)
	})

	t.Run("reports missing checkpoints", func(t *testing.T) {
		err := s.UpdateStatusIf(
			ctx, "workflow-missing", api.StatusPendingApproval,
			api.StatusApproved, api.StepProcessingPay, store.Fields{},
		)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRejectionReasonLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cp := newCheckpoint(t)
	require.NoError(t, s.Create(ctx, cp))

	require.NoError(t, s.UpdateStatus(
		ctx, cp.WorkflowID, api.StatusRejected, api.StepRejected,
		store.Fields{RejectionReason: "Manager declined"},
	))

	got, err := s.Get(ctx, cp.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, "Manager declined", got.RejectionReason)

	require.NoError(t, s.UpdateStatus(
		ctx, cp.WorkflowID, api.StatusRejected, api.StepRejected,
		store.Fields{ClearRejectionReason: true},
	))

	got, err = s.Get(ctx, cp.WorkflowID)
	require.NoError(t, err)
	assert.Empty(t, got.RejectionReason)
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
