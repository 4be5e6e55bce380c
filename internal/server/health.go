package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/signoff-io/signoff"
	"github.com/signoff-io/signoff/pkg/api"
)

func (s *Server) handleHealth(c *gin.Context) {
	storeStatus := "ok"
	status := "healthy"
	code := http.StatusOK

	if err := s.checkps.Ping(c.Request.Context()); err != nil {
		storeStatus = err.Error()
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, api.HealthResponse{
		Service: app.Name,
		Version: app.Version,
		Status:  status,
		Store:   storeStatus,
	})
}
