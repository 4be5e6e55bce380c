package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/signoff-io/signoff/internal/workflow"
	"github.com/signoff-io/signoff/pkg/api"
)

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html><head><title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; }
.success { background-color: #d4edda; border: 1px solid #c3e6cb; color: #155724; padding: 20px; border-radius: 5px; }
.info { background-color: #d1ecf1; border: 1px solid #bee5eb; color: #0c5460; padding: 15px; margin-top: 20px; border-radius: 5px; }
</style></head><body>
<div class="success"><h1>{{.Title}}</h1><p>{{.Message}}</p></div>
<div class="info"><p><strong>Workflow was suspended for:</strong> {{.SuspendedFor}}</p>
<p>The workflow waited for this decision with no active computation; its
checkpoint carried everything needed to resume.</p></div>
</body></html>`))

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html><head><title>Error</title>
<style>
body { font-family: Arial, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; }
.error { background-color: #f8d7da; border: 1px solid #f5c6cb; color: #721c24; padding: 20px; border-radius: 5px; }
</style></head><body>
<div class="error"><h1>Error</h1><p>{{.Message}}</p></div>
</body></html>`))

func (s *Server) handleCallback(c *gin.Context) {
	id := api.WorkflowID(c.Query("workflowId"))
	token := api.Token(c.Query("token"))

	decision, ok := api.ParseDecision(c.Query("decision"))
	if !ok || id == "" || token == "" {
		s.renderError(c, http.StatusBadRequest,
			"Invalid approval link")
		return
	}

	res, err := s.workflows.Resume(c.Request.Context(), id, token, decision)
	if err != nil {
		s.renderResumeError(c, err)
		return
	}

	report := "rejected"
	title := "Expense Rejected"
	if res.Status != api.StatusRejected {
		report = "approved and payment processing has been initiated"
		title = "Expense Approved"
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = successPage.Execute(c.Writer, map[string]string{
		"Title": title,
		"Message": fmt.Sprintf(
			"The expense report has been %s.", report),
		"SuspendedFor": res.SuspendedFor,
	})
}

func (s *Server) renderResumeError(c *gin.Context, err error) {
	var processed *workflow.AlreadyProcessedError
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		s.renderError(c, http.StatusNotFound, "Workflow not found")
	case errors.Is(err, workflow.ErrUnauthorized):
		s.renderError(c, http.StatusForbidden,
			"Invalid or expired approval link")
	case errors.As(err, &processed):
		s.renderError(c, http.StatusBadRequest, fmt.Sprintf(
			"This approval has already been processed. Current status: %s",
			processed.Status))
	default:
		s.renderError(c, http.StatusInternalServerError,
			"An error occurred while processing your request")
	}
}

func (s *Server) renderError(c *gin.Context, status int, message string) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = errorPage.Execute(c.Writer, map[string]string{
		"Message": message,
	})
}
