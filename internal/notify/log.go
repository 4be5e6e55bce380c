package notify

import (
	"context"
	"log/slog"

	"github.com/signoff-io/signoff/pkg/api"
	"github.com/signoff-io/signoff/pkg/log"
)

// LogNotifier logs notifications instead of delivering them, for
// development and environments without an SMTP relay
type LogNotifier struct {
	callbackURL string
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(callbackBaseURL string) *LogNotifier {
	return &LogNotifier{callbackURL: callbackBaseURL}
}

func (n *LogNotifier) ApprovalRequested(
	_ context.Context, cp *api.Checkpoint, r *api.ExpenseReport,
) error {
	slog.Info("Approval requested",
		log.WorkflowID(cp.WorkflowID),
		slog.String("manager_email", r.ManagerEmail),
		slog.String("amount", r.Amount.StringFixed(2)),
		slog.String("approve_url", CallbackURL(
			n.callbackURL, cp.WorkflowID, cp.ApprovalToken,
			api.DecisionApprove,
		)),
		slog.String("reject_url", CallbackURL(
			n.callbackURL, cp.WorkflowID, cp.ApprovalToken,
			api.DecisionReject,
		)))
	return nil
}

func (n *LogNotifier) Decision(
	_ context.Context, cp *api.Checkpoint, r *api.ExpenseReport,
	approved bool,
) error {
	slog.Info("Decision notice",
		log.WorkflowID(cp.WorkflowID),
		slog.String("employee_email", r.EmployeeEmail),
		slog.Bool("approved", approved))
	return nil
}
