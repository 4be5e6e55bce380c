// Package notify delivers approval-request and decision notifications
//
// The workflow core treats delivery as fire-and-forget: checkpoint writes
// are always confirmed before a notification is attempted, and a delivery
// failure never corrupts checkpoint state
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/signoff-io/signoff/pkg/api"
)

type (
	// Notifier sends workflow notifications to the people involved
	Notifier interface {
		// ApprovalRequested notifies the manager that a report awaits
		// their decision, carrying the approve and reject callback links
		ApprovalRequested(
			ctx context.Context, cp *api.Checkpoint, r *api.ExpenseReport,
		) error

		// Decision notifies the employee of the manager's decision
		Decision(
			ctx context.Context, cp *api.Checkpoint, r *api.ExpenseReport,
			approved bool,
		) error
	}
)

var (
	ErrSendApprovalRequest = errors.New("failed to send approval request")
	ErrSendDecision        = errors.New("failed to send decision notice")
)

// CallbackURL builds the resume link embedded in approval notifications
func CallbackURL(
	base string, id api.WorkflowID, token api.Token, d api.Decision,
) string {
	q := url.Values{}
	q.Set("workflowId", string(id))
	q.Set("token", string(token))
	q.Set("decision", string(d))
	return fmt.Sprintf("%s/callback?%s", base, q.Encode())
}
