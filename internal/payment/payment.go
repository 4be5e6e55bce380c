// Package payment triggers payment execution for approved expense reports
//
// The trigger is idempotent on the payment provider side and is invoked
// only after the APPROVED transition has been durably persisted
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/signoff-io/signoff/pkg/api"
	"github.com/signoff-io/signoff/pkg/log"
)

type (
	// Executor triggers the payment side effect for an approved report
	Executor interface {
		Execute(ctx context.Context, r *api.ExpenseReport) error
	}

	// HTTPExecutor posts payment requests to an external payment service,
	// guarded by a circuit breaker so a failing provider cannot pile up
	// in-flight callback requests
	HTTPExecutor struct {
		endpoint   string
		httpClient *http.Client
		breaker    *gobreaker.CircuitBreaker[struct{}]
	}

	// Request is the wire format sent to the payment service
	Request struct {
		ReportID   api.ReportID `json:"report_id"`
		EmployeeID string       `json:"employee_id"`
		Amount     string       `json:"amount"`
		Reference  string       `json:"reference"`
	}
)

var (
	ErrPaymentFailed = errors.New("payment request failed")
	ErrHTTPError     = errors.New("payment service returned HTTP error")
)

var _ Executor = (*HTTPExecutor)(nil)

const breakerFailureThreshold = 5

// NewHTTPExecutor creates a payment executor for the given endpoint
func NewHTTPExecutor(endpoint string, timeout time.Duration) *HTTPExecutor {
	return &HTTPExecutor{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name: "payment",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailureThreshold
			},
		}),
	}
}

func (e *HTTPExecutor) Execute(
	ctx context.Context, r *api.ExpenseReport,
) error {
	_, err := e.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, e.post(ctx, r)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}
	return nil
}

func (e *HTTPExecutor) post(ctx context.Context, r *api.ExpenseReport) error {
	body, err := json.Marshal(Request{
		ReportID:   r.ReportID,
		EmployeeID: r.EmployeeID,
		Amount:     r.Amount.StringFixed(2),
		Reference:  string(api.WorkflowIDFor(r.ReportID)),
	})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, e.endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := e.httpClient.Do(httpReq)
	dur := time.Since(start)

	if err != nil {
		slog.Error("Payment request failed",
			log.ReportID(r.ReportID),
			slog.Duration("duration", dur),
			log.Error(err))
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		slog.Error("Payment service error",
			log.ReportID(r.ReportID),
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(respBody)))
		return fmt.Errorf("%w: HTTP %d", ErrHTTPError, resp.StatusCode)
	}

	slog.Info("Payment triggered",
		log.ReportID(r.ReportID),
		slog.String("amount", r.Amount.StringFixed(2)),
		slog.Duration("duration", dur))
	return nil
}
