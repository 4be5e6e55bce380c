package payment

import (
	"context"
	"log/slog"

	"github.com/signoff-io/signoff/pkg/api"
	"github.com/signoff-io/signoff/pkg/log"
)

// LogExecutor logs payment triggers instead of calling a payment service,
// for development and environments without a payment provider
type LogExecutor struct{}

var _ Executor = (*LogExecutor)(nil)

func NewLogExecutor() *LogExecutor {
	return &LogExecutor{}
}

func (e *LogExecutor) Execute(_ context.Context, r *api.ExpenseReport) error {
	slog.Info("Payment triggered (log only)",
		log.ReportID(r.ReportID),
		slog.String("employee", r.EmployeeName),
		slog.String("amount", r.Amount.StringFixed(2)))
	return nil
}
