package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/signoff-io/signoff/internal/workflow"
	"github.com/signoff-io/signoff/pkg/api"
	"github.com/signoff-io/signoff/pkg/log"
)

func (s *Server) handleSubmit(c *gin.Context) {
	var req api.SubmitExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("Invalid submission: %v", err),
			Status: http.StatusBadRequest,
		})
		return
	}

	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "Amount must be positive",
			Status: http.StatusBadRequest,
		})
		return
	}

	res, err := s.workflows.Submit(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Submission failed", log.Error(err))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  "Failed to process expense submission",
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) getWorkflow(c *gin.Context) {
	id := api.WorkflowID(c.Param("workflowID"))

	res, err := s.workflows.GetWorkflow(c.Request.Context(), id)
	if err != nil {
		if err == workflow.ErrNotFound {
			c.JSON(http.StatusNotFound, api.ErrorResponse{
				Error:  fmt.Sprintf("Workflow not found: %s", id),
				Status: http.StatusNotFound,
			})
			return
		}
		slog.Error("Workflow lookup failed",
			log.WorkflowID(id),
			log.Error(err))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  "Failed to retrieve workflow",
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, res)
}
