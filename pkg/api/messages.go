package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// SubmitExpenseRequest contains parameters for submitting an expense
	// report
	SubmitExpenseRequest struct {
		EmployeeID    string          `json:"employee_id" binding:"required"`
		EmployeeName  string          `json:"employee_name" binding:"required"`
		EmployeeEmail string          `json:"employee_email" binding:"required,email"`
		ManagerID     string          `json:"manager_id"`
		ManagerEmail  string          `json:"manager_email" binding:"required,email"`
		Amount        decimal.Decimal `json:"amount" binding:"required"`
		Category      string          `json:"category"`
		Description   string          `json:"description"`
	}

	// SubmitExpenseResponse is returned when a submission succeeds
	SubmitExpenseResponse struct {
		Message    string     `json:"message"`
		WorkflowID WorkflowID `json:"workflow_id"`
		ReportID   ReportID   `json:"report_id"`
		Status     Status     `json:"status"`
		Notified   bool       `json:"notified"`
		Info       string     `json:"info,omitempty"`
	}

	// WorkflowResponse provides a digest of a checkpoint for observability
	WorkflowResponse struct {
		WorkflowID         WorkflowID `json:"workflow_id"`
		ReportID           ReportID   `json:"report_id"`
		Status             Status     `json:"status"`
		CurrentStep        string     `json:"current_step"`
		CreatedAt          time.Time  `json:"created_at"`
		UpdatedAt          time.Time  `json:"updated_at"`
		SuspendedAt        *time.Time `json:"suspended_at,omitempty"`
		ResumedAt          *time.Time `json:"resumed_at,omitempty"`
		SuspendedFor       string     `json:"suspended_for,omitempty"`
		RejectionReason    string     `json:"rejection_reason,omitempty"`
	}

	// CallbackResult describes the outcome of a resume call
	CallbackResult struct {
		WorkflowID   WorkflowID `json:"workflow_id"`
		Status       Status     `json:"status"`
		Decision     Decision   `json:"decision"`
		SuspendedFor string     `json:"suspended_for"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
		Store   string `json:"store"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)
