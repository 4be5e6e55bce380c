package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

type (
	// ExpenseReport is the business payload captured once at submission
	// and carried opaquely by the checkpoint
	ExpenseReport struct {
		SchemaVersion int             `json:"schema_version"`
		ReportID      ReportID        `json:"report_id"`
		EmployeeID    string          `json:"employee_id"`
		EmployeeName  string          `json:"employee_name"`
		EmployeeEmail string          `json:"employee_email"`
		ManagerID     string          `json:"manager_id"`
		ManagerEmail  string          `json:"manager_email"`
		Amount        decimal.Decimal `json:"amount"`
		Category      string          `json:"category"`
		Description   string          `json:"description"`
		SubmittedAt   time.Time       `json:"submitted_at"`
	}
)

// PayloadSchemaVersion is the schema version written to new payloads.
// Readers accept any version up to this one
const PayloadSchemaVersion = 1

var (
	ErrEncodePayload        = errors.New("failed to encode payload")
	ErrDecodePayload        = errors.New("failed to decode payload")
	ErrPayloadSchemaMissing = errors.New("payload schema version missing")
	ErrPayloadSchemaNewer   = errors.New("payload schema version unsupported")
)

// EncodePayload serializes a report as the checkpoint's versioned payload
// blob
func EncodePayload(r *ExpenseReport) (json.RawMessage, error) {
	r.SchemaVersion = PayloadSchemaVersion
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodePayload, err)
	}
	return data, nil
}

// DecodePayload deserializes a checkpoint payload blob, checking its schema
// version before attempting a full decode so that blobs written by a newer
// service version fail cleanly
func DecodePayload(data json.RawMessage) (*ExpenseReport, error) {
	version := gjson.GetBytes(data, "schema_version")
	if !version.Exists() {
		return nil, ErrPayloadSchemaMissing
	}
	if version.Int() > PayloadSchemaVersion {
		return nil, fmt.Errorf("%w: %d",
			ErrPayloadSchemaNewer, version.Int())
	}

	var report ExpenseReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodePayload, err)
	}
	return &report, nil
}
