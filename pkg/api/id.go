package api

import "github.com/google/uuid"

type (
	// WorkflowID is a unique identifier for a workflow checkpoint
	WorkflowID string

	// ReportID is a unique identifier for an expense report
	ReportID string

	// Token is an unguessable secret authorizing a single resume capability
	Token string
)

const workflowIDPrefix = "workflow-"

// NewReportID generates a random report identifier
func NewReportID() ReportID {
	return ReportID(uuid.NewString())
}

// NewToken generates a random approval token
func NewToken() Token {
	return Token(uuid.NewString())
}

// WorkflowIDFor derives the workflow identifier for a report
func WorkflowIDFor(id ReportID) WorkflowID {
	return WorkflowID(workflowIDPrefix + string(id))
}
