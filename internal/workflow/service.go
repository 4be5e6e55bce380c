// Package workflow implements the two-phase approval state machine
//
// The submission phase records a checkpoint and suspends it; the callback
// phase authenticates a token against the stored checkpoint and completes
// the workflow. No in-process state survives between the two phases: the
// checkpoint store carries everything needed to resume, across a gap of
// seconds or months
package workflow

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/signoff-io/signoff/internal/events"
	"github.com/signoff-io/signoff/internal/notify"
	"github.com/signoff-io/signoff/internal/payment"
	"github.com/signoff-io/signoff/internal/store"
	"github.com/signoff-io/signoff/pkg/api"
	"github.com/signoff-io/signoff/pkg/log"
)

type (
	// Archiver exports terminal checkpoints; best-effort
	Archiver interface {
		Archive(ctx context.Context, cp *api.Checkpoint) error
	}

	// Dependencies holds the collaborators injected into the service.
	// Archiver and Events are optional
	Dependencies struct {
		Store    store.CheckpointStore
		Notifier notify.Notifier
		Payments payment.Executor
		Archiver Archiver
		Events   events.Publisher
		Clock    func() time.Time
	}

	// Service coordinates checkpoint writes, notifications, and the
	// payment side effect. Both entry points are stateless: each call
	// reads everything it needs from the checkpoint store
	Service struct {
		deps Dependencies
	}
)

// NewService creates the workflow service with explicit dependencies
func NewService(deps Dependencies) *Service {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Service{deps: deps}
}

// Submit records a new expense report, suspends the workflow, and requests
// manager approval. The checkpoint is durably suspended before the
// notification is attempted, so a delivery failure never leaves it
// silently unsuspended; delivery failure is surfaced via the Notified flag
func (s *Service) Submit(
	ctx context.Context, req *api.SubmitExpenseRequest,
) (*api.SubmitExpenseResponse, error) {
	now := s.deps.Clock().UTC()
	reportID := api.NewReportID()

	report := &api.ExpenseReport{
		ReportID:      reportID,
		EmployeeID:    req.EmployeeID,
		EmployeeName:  req.EmployeeName,
		EmployeeEmail: req.EmployeeEmail,
		ManagerID:     req.ManagerID,
		ManagerEmail:  req.ManagerEmail,
		Amount:        req.Amount,
		Category:      req.Category,
		Description:   req.Description,
		SubmittedAt:   now,
	}

	payload, err := api.EncodePayload(report)
	if err != nil {
		return nil, err
	}

	cp := api.NewCheckpoint(reportID, payload, now)
	if err := s.deps.Store.Create(ctx, cp); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeWorkflowSubmitted, cp)

	slog.Info("Checkpoint created",
		log.WorkflowID(cp.WorkflowID),
		log.ReportID(reportID),
		slog.String("employee", report.EmployeeName),
		slog.String("amount", report.Amount.StringFixed(2)))

	suspendedAt := s.deps.Clock().UTC()
	if err := s.deps.Store.UpdateStatus(
		ctx, cp.WorkflowID, api.StatusPendingApproval,
		api.StepAwaitingApproval,
		store.Fields{SuspendedAt: &suspendedAt},
	); err != nil {
		return nil, err
	}
	cp.Status = api.StatusPendingApproval
	cp.CurrentStep = api.StepAwaitingApproval
	cp.SuspendedAt = &suspendedAt
	s.publish(ctx, events.TypeWorkflowSuspended, cp)

	slog.Info("Workflow suspended, awaiting manager approval",
		log.WorkflowID(cp.WorkflowID))

	notified := true
	if err := s.deps.Notifier.ApprovalRequested(ctx, cp, report); err != nil {
		notified = false
		slog.Error("Failed to send approval request",
			log.WorkflowID(cp.WorkflowID),
			log.Error(err))
	}

	info := "Manager approval requested. " +
		"The workflow is suspended until the manager responds."
	if !notified {
		info = "Workflow suspended, but the approval notification could " +
			"not be delivered; it must be re-sent before the manager " +
			"can respond."
	}

	return &api.SubmitExpenseResponse{
		Message:    "Expense report submitted successfully",
		WorkflowID: cp.WorkflowID,
		ReportID:   reportID,
		Status:     cp.Status,
		Notified:   notified,
		Info:       info,
	}, nil
}

// Resume authenticates a callback against the stored checkpoint and applies
// the manager's decision. Side effects run strictly after the state
// transition is durably persisted, so a crash between the two leaves the
// checkpoint correctly marked and the side effect replayable by an
// external reconciler
func (s *Service) Resume(
	ctx context.Context, id api.WorkflowID, token api.Token,
	decision api.Decision,
) (*api.CallbackResult, error) {
	cp, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if subtle.ConstantTimeCompare(
		[]byte(cp.ApprovalToken), []byte(token),
	) != 1 {
		slog.Warn("Approval token mismatch",
			log.WorkflowID(id),
			log.Token(token))
		return nil, ErrUnauthorized
	}

	if !cp.Suspended() {
		slog.Warn("Resume against non-suspended checkpoint",
			log.WorkflowID(id),
			log.Status(cp.Status))
		return nil, &AlreadyProcessedError{Status: cp.Status}
	}

	report, err := api.DecodePayload(cp.Payload)
	if err != nil {
		s.fail(ctx, cp, err)
		return nil, err
	}

	now := s.deps.Clock().UTC()
	suspendedFor := cp.SuspensionDuration(now)
	slog.Info("Resuming workflow from checkpoint",
		log.WorkflowID(id),
		log.Decision(decision),
		slog.String("suspended_for", api.FormatDuration(suspendedFor)))

	if err := s.transition(ctx, cp, decision, now); err != nil {
		return nil, err
	}

	if decision == api.DecisionApprove {
		s.publish(ctx, events.TypeWorkflowApproved, cp)
		s.completePayment(ctx, cp, report)
	} else {
		s.publish(ctx, events.TypeWorkflowRejected, cp)
	}

	if err := s.deps.Notifier.Decision(
		ctx, cp, report, decision == api.DecisionApprove,
	); err != nil {
		slog.Error("Failed to send decision notice",
			log.WorkflowID(id),
			log.Error(err))
	}

	s.archive(ctx, cp)

	return &api.CallbackResult{
		WorkflowID:   cp.WorkflowID,
		Status:       cp.Status,
		Decision:     decision,
		SuspendedFor: api.FormatDuration(suspendedFor),
	}, nil
}

// GetWorkflow returns a checkpoint digest including the live suspension
// duration
func (s *Service) GetWorkflow(
	ctx context.Context, id api.WorkflowID,
) (*api.WorkflowResponse, error) {
	cp, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	res := &api.WorkflowResponse{
		WorkflowID:      cp.WorkflowID,
		ReportID:        cp.ReportID,
		Status:          cp.Status,
		CurrentStep:     cp.CurrentStep,
		CreatedAt:       cp.CreatedAt,
		UpdatedAt:       cp.UpdatedAt,
		SuspendedAt:     cp.SuspendedAt,
		ResumedAt:       cp.ResumedAt,
		RejectionReason: cp.RejectionReason,
	}
	if cp.SuspendedAt != nil {
		res.SuspendedFor = api.FormatDuration(
			cp.SuspensionDuration(s.deps.Clock().UTC()),
		)
	}
	return res, nil
}

// transition applies the approve/reject state change with a conditional
// update keyed on the suspended status, so that at most one of two racing
// resume calls succeeds
func (s *Service) transition(
	ctx context.Context, cp *api.Checkpoint, decision api.Decision,
	now time.Time,
) error {
	next := decision.Status()
	fields := store.Fields{ResumedAt: &now}
	step := api.StepProcessingPay
	if decision == api.DecisionReject {
		step = api.StepRejected
		fields.RejectionReason = "Manager declined the expense report"
	} else {
		fields.ClearRejectionReason = true
	}

	err := s.deps.Store.UpdateStatusIf(
		ctx, cp.WorkflowID, api.StatusPendingApproval, next, step, fields,
	)
	if err == nil {
		cp.Status = next
		cp.CurrentStep = step
		cp.ResumedAt = &now
		cp.RejectionReason = fields.RejectionReason
		return nil
	}

	if errors.Is(err, store.ErrPreconditionFailed) {
		// Lost the race against a concurrent resume; report the status
		// the winner left behind
		current := cp.Status
		if fresh, getErr := s.deps.Store.Get(ctx, cp.WorkflowID); getErr == nil {
			current = fresh.Status
		}
		return &AlreadyProcessedError{Status: current}
	}
	return err
}

// completePayment triggers payment after the APPROVED transition has been
// persisted. A payment failure never reverses the approval; the checkpoint
// is marked for external reconciliation instead
func (s *Service) completePayment(
	ctx context.Context, cp *api.Checkpoint, report *api.ExpenseReport,
) {
	if err := s.deps.Payments.Execute(ctx, report); err != nil {
		slog.Error("Payment trigger failed, awaiting reconciliation",
			log.WorkflowID(cp.WorkflowID),
			log.Error(err))
		if err := s.deps.Store.UpdateStatus(
			ctx, cp.WorkflowID, api.StatusApproved,
			api.StepPaymentPending, store.Fields{},
		); err != nil {
			slog.Error("Failed to mark payment pending",
				log.WorkflowID(cp.WorkflowID),
				log.Error(err))
		}
		cp.CurrentStep = api.StepPaymentPending
		return
	}

	if err := s.deps.Store.UpdateStatus(
		ctx, cp.WorkflowID, api.StatusPaymentProcessed,
		api.StepCompleted, store.Fields{},
	); err != nil {
		slog.Error("Failed to mark payment processed",
			log.WorkflowID(cp.WorkflowID),
			log.Error(err))
		return
	}
	cp.Status = api.StatusPaymentProcessed
	cp.CurrentStep = api.StepCompleted
	s.publish(ctx, events.TypePaymentProcessed, cp)
}

// fail moves a checkpoint to FAILED on an unrecoverable error, guarded on
// the suspended status so a racing successful resume is never overwritten
func (s *Service) fail(ctx context.Context, cp *api.Checkpoint, cause error) {
	slog.Error("Workflow failed",
		log.WorkflowID(cp.WorkflowID),
		log.Error(cause))
	if err := s.deps.Store.UpdateStatusIf(
		ctx, cp.WorkflowID, cp.Status, api.StatusFailed,
		api.StepFailed, store.Fields{},
	); err != nil {
		slog.Error("Failed to mark workflow failed",
			log.WorkflowID(cp.WorkflowID),
			log.Error(err))
	}
}

func (s *Service) publish(
	ctx context.Context, typ events.Type, cp *api.Checkpoint,
) {
	if s.deps.Events == nil {
		return
	}
	s.deps.Events.Publish(ctx, events.NewEvent(typ, cp))
}

func (s *Service) archive(ctx context.Context, cp *api.Checkpoint) {
	if s.deps.Archiver == nil || !cp.Status.Terminal() {
		return
	}
	if err := s.deps.Archiver.Archive(ctx, cp); err != nil {
		slog.Error("Failed to archive checkpoint",
			log.WorkflowID(cp.WorkflowID),
			log.Error(err))
	}
}
