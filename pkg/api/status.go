package api

type (
	// Status represents the current state of a workflow checkpoint
	Status string

	// Decision is the manager's answer carried by a resume callback
	Decision string
)

const (
	// StatusSubmitted means the expense report has been received
	StatusSubmitted Status = "SUBMITTED"

	// StatusPendingApproval is the single suspended state; the workflow may
	// wait here indefinitely with no active computation
	StatusPendingApproval Status = "PENDING_APPROVAL"

	// StatusApproved means the manager approved the report
	StatusApproved Status = "APPROVED"

	// StatusRejected means the manager rejected the report
	StatusRejected Status = "REJECTED"

	// StatusPaymentProcessed means payment has been triggered
	StatusPaymentProcessed Status = "PAYMENT_PROCESSED"

	// StatusFailed marks a workflow stopped by an unrecoverable error
	StatusFailed Status = "FAILED"
)

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// transitions is the forward-only graph of permitted status changes
var transitions = map[Status][]Status{
	StatusSubmitted:       {StatusPendingApproval, StatusFailed},
	StatusPendingApproval: {StatusApproved, StatusRejected, StatusFailed},
	StatusApproved:        {StatusPaymentProcessed, StatusFailed},
}

// Valid reports whether the status is one of the defined workflow states
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusPendingApproval, StatusApproved,
		StatusRejected, StatusPaymentProcessed, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0 && s.Valid()
}

// CanTransitionTo reports whether moving to next is permitted by the graph
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ParseDecision validates a decision received as a query parameter
func ParseDecision(s string) (Decision, bool) {
	switch Decision(s) {
	case DecisionApprove:
		return DecisionApprove, true
	case DecisionReject:
		return DecisionReject, true
	}
	return "", false
}

// Status returns the checkpoint status a decision resolves to
func (d Decision) Status() Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}
