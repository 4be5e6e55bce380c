package api

import (
	"encoding/json"
	"time"
)

type (
	// Checkpoint is the durable record of a workflow, sufficient to resume
	// it with no other in-memory context
	Checkpoint struct {
		WorkflowID      WorkflowID      `json:"workflow_id"`
		ReportID        ReportID        `json:"report_id"`
		Status          Status          `json:"status"`
		Payload         json.RawMessage `json:"payload"`
		ApprovalToken   Token           `json:"approval_token"`
		CurrentStep     string          `json:"current_step"`
		CreatedAt       time.Time       `json:"created_at"`
		UpdatedAt       time.Time       `json:"updated_at"`
		SuspendedAt     *time.Time      `json:"suspended_at,omitempty"`
		ResumedAt       *time.Time      `json:"resumed_at,omitempty"`
		RejectionReason string          `json:"rejection_reason,omitempty"`
	}
)

// Workflow step markers, informational only and never used for control
// decisions
const (
	StepSubmitted        = "EXPENSE_SUBMITTED"
	StepAwaitingApproval = "AWAITING_MANAGER_APPROVAL"
	StepProcessingPay    = "PROCESSING_PAYMENT"
	StepPaymentPending   = "PAYMENT_PENDING_RECONCILE"
	StepRejected         = "REJECTED"
	StepCompleted        = "COMPLETED"
	StepFailed           = "FAILED"
)

// NewCheckpoint creates a checkpoint in the SUBMITTED state with a fresh
// approval token
func NewCheckpoint(
	reportID ReportID, payload json.RawMessage, now time.Time,
) *Checkpoint {
	return &Checkpoint{
		WorkflowID:    WorkflowIDFor(reportID),
		ReportID:      reportID,
		Status:        StatusSubmitted,
		Payload:       payload,
		ApprovalToken: NewToken(),
		CurrentStep:   StepSubmitted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SuspensionDuration returns how long the checkpoint has been suspended,
// truncated to whole seconds. The clock stops at ResumedAt once the
// checkpoint leaves the suspended state. Returns zero before suspension
func (c *Checkpoint) SuspensionDuration(now time.Time) time.Duration {
	if c.SuspendedAt == nil {
		return 0
	}
	end := now
	if c.ResumedAt != nil {
		end = *c.ResumedAt
	}
	return end.Sub(*c.SuspendedAt).Truncate(time.Second)
}

// Suspended reports whether the checkpoint accepts a resume call
func (c *Checkpoint) Suspended() bool {
	return c.Status == StatusPendingApproval
}
