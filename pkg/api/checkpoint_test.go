package api_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/signoff-io/signoff/pkg/api"
)

func TestNewCheckpoint(t *testing.T) {
	now := time.Now().UTC()
	reportID := api.NewReportID()
	payload := json.RawMessage(`{"schema_version":1}`)

	cp := api.NewCheckpoint(reportID, payload, now)

	assert.Equal(t, api.WorkflowIDFor(reportID), cp.WorkflowID)
	assert.Equal(t, reportID, cp.ReportID)
	assert.Equal(t, api.StatusSubmitted, cp.Status)
	assert.Equal(t, api.StepSubmitted, cp.CurrentStep)
	assert.NotEmpty(t, cp.ApprovalToken)
	assert.Equal(t, now, cp.CreatedAt)
	assert.Equal(t, now, cp.UpdatedAt)
	assert.Nil(t, cp.SuspendedAt)
	assert.Nil(t, cp.ResumedAt)
}

func TestCheckpointTokensAreUnique(t *testing.T) {
	seen := map[api.Token]bool{}
	for range 100 {
		cp := api.NewCheckpoint(api.NewReportID(), nil, time.Now())
		assert.False(t, seen[cp.ApprovalToken])
		seen[cp.ApprovalToken] = true
	}
}

func TestSuspensionDurationBeforeSuspend(t *testing.T) {
	cp := api.NewCheckpoint(api.NewReportID(), nil, time.Now())
	assert.Equal(t, time.Duration(0), cp.SuspensionDuration(time.Now()))
}

func TestSuspensionDurationWhileSuspended(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cp := api.NewCheckpoint(api.NewReportID(), nil, t0)
	cp.SuspendedAt = &t0

	assert.Equal(t, 90*time.Second,
		cp.SuspensionDuration(t0.Add(90*time.Second)))

	// Strictly increases with wall-clock time
	assert.Greater(t,
		cp.SuspensionDuration(t0.Add(48*time.Hour)),
		cp.SuspensionDuration(t0.Add(time.Hour)))
}

func TestSuspensionDurationStopsAtResume(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(3 * time.Hour)
	cp := api.NewCheckpoint(api.NewReportID(), nil, t0)
	cp.SuspendedAt = &t0
	cp.ResumedAt = &t1

	// The clock stops at ResumedAt no matter how late the query runs
	assert.Equal(t, 3*time.Hour,
		cp.SuspensionDuration(t0.Add(1000*time.Hour)))
}

func TestSuspended(t *testing.T) {
	cp := api.NewCheckpoint(api.NewReportID(), nil, time.Now())
	assert.False(t, cp.Suspended())

	cp.Status = api.StatusPendingApproval
	assert.True(t, cp.Suspended())

	cp.Status = api.StatusApproved
	assert.False(t, cp.Suspended())
}
