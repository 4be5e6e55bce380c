package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/signoff-io/signoff/pkg/api"
)

// MailNotifier delivers notifications over SMTP
type MailNotifier struct {
	addr        string
	from        string
	callbackURL string
	send        sendFunc
}

// sendFunc matches smtp.SendMail, injectable for tests
type sendFunc func(
	addr string, a smtp.Auth, from string, to []string, msg []byte,
) error

var _ Notifier = (*MailNotifier)(nil)

var approvalTmpl = template.Must(template.New("approval").Parse(`<html>
<body>
<h2>Expense Approval Required</h2>
<p>{{.EmployeeName}} submitted an expense report for ${{.Amount}}.</p>
<p><b>Category:</b> {{.Category}}</p>
<p><b>Description:</b> {{.Description}}</p>
<p>
  <a href="{{.ApproveURL}}">Approve</a> &nbsp;|&nbsp;
  <a href="{{.RejectURL}}">Reject</a>
</p>
<p>This request will wait for your decision indefinitely.</p>
</body>
</html>`))

var decisionTmpl = template.Must(template.New("decision").Parse(`<html>
<body>
<h2>Expense Report {{.Outcome}}</h2>
<p>Your expense report for ${{.Amount}} has been {{.OutcomeLower}}.</p>
{{if .Reason}}<p><b>Reason:</b> {{.Reason}}</p>{{end}}
</body>
</html>`))

// NewMailNotifier creates an SMTP notifier. Callback links are rooted at
// callbackBaseURL
func NewMailNotifier(host string, port int, from, callbackBaseURL string) *MailNotifier {
	return &MailNotifier{
		addr:        fmt.Sprintf("%s:%d", host, port),
		from:        from,
		callbackURL: strings.TrimRight(callbackBaseURL, "/"),
		send:        smtp.SendMail,
	}
}

func (n *MailNotifier) ApprovalRequested(
	_ context.Context, cp *api.Checkpoint, r *api.ExpenseReport,
) error {
	subject := fmt.Sprintf("Expense Approval Required: $%s from %s",
		r.Amount, r.EmployeeName)

	var body bytes.Buffer
	err := approvalTmpl.Execute(&body, map[string]any{
		"EmployeeName": r.EmployeeName,
		"Amount":       r.Amount.StringFixed(2),
		"Category":     r.Category,
		"Description":  r.Description,
		"ApproveURL": template.URL(CallbackURL(
			n.callbackURL, cp.WorkflowID, cp.ApprovalToken,
			api.DecisionApprove,
		)),
		"RejectURL": template.URL(CallbackURL(
			n.callbackURL, cp.WorkflowID, cp.ApprovalToken,
			api.DecisionReject,
		)),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendApprovalRequest, err)
	}

	if err := n.sendMail(r.ManagerEmail, subject, body.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrSendApprovalRequest, err)
	}
	return nil
}

func (n *MailNotifier) Decision(
	_ context.Context, cp *api.Checkpoint, r *api.ExpenseReport,
	approved bool,
) error {
	outcome := "Approved"
	if !approved {
		outcome = "Rejected"
	}
	subject := fmt.Sprintf("Expense Report %s: $%s",
		outcome, r.Amount.StringFixed(2))

	var body bytes.Buffer
	err := decisionTmpl.Execute(&body, map[string]any{
		"Outcome":      outcome,
		"OutcomeLower": strings.ToLower(outcome),
		"Amount":       r.Amount.StringFixed(2),
		"Reason":       cp.RejectionReason,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendDecision, err)
	}

	if err := n.sendMail(r.EmployeeEmail, subject, body.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrSendDecision, err)
	}
	return nil
}

func (n *MailNotifier) sendMail(to, subject string, body []byte) error {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.Write(body)

	return n.send(n.addr, nil, n.from, []string{to}, msg.Bytes())
}
