package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signoff-io/signoff/internal/events"
	"github.com/signoff-io/signoff/internal/notify"
	"github.com/signoff-io/signoff/internal/payment"
	"github.com/signoff-io/signoff/internal/server"
	"github.com/signoff-io/signoff/internal/store"
	"github.com/signoff-io/signoff/internal/workflow"
	"github.com/signoff-io/signoff/pkg/api"
)

type testServer struct {
	router *gin.Engine
	store  *store.RedisStore
	redis  *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	st := store.NewRedisStore(client, "test")
	hub := events.NewRedisHub(client, "test")
	svc := workflow.NewService(workflow.Dependencies{
		Store:    st,
		Notifier: notify.NewLogNotifier("http://localhost:8080"),
		Payments: payment.NewLogExecutor(),
		Events:   hub,
	})

	return &testServer{
		router: server.NewServer(svc, st, hub).SetupRoutes(),
		store:  st,
		redis:  mr,
	}
}

func (s *testServer) do(
	t *testing.T, method, path, body string,
) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

const validSubmission = `{
	"employee_id": "emp-42",
	"employee_name": "John Doe",
	"employee_email": "john@example.com",
	"manager_id": "mgr-7",
	"manager_email": "manager@example.com",
	"amount": "150.00",
	"category": "travel",
	"description": "Quarterly offsite"
}`

func (s *testServer) submit(t *testing.T) *api.SubmitExpenseResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/expenses", validSubmission)
	require.Equal(t, http.StatusOK, w.Code)

	var res api.SubmitExpenseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return &res
}

func TestSubmitExpense(t *testing.T) {
	s := newTestServer(t)

	res := s.submit(t)
	assert.Equal(t, api.StatusPendingApproval, res.Status)
	assert.True(t, res.Notified)
	assert.NotEmpty(t, res.WorkflowID)
	assert.NotEmpty(t, res.ReportID)
}

func TestSubmitExpenseValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"missing employee name", `{
			"employee_id": "emp-42",
			"employee_email": "john@example.com",
			"manager_email": "manager@example.com",
			"amount": "150.00"
		}`},
		{"bad email", `{
			"employee_id": "emp-42",
			"employee_name": "John Doe",
			"employee_email": "not-an-email",
			"manager_email": "manager@example.com",
			"amount": "150.00"
		}`},
		{"negative amount", `{
			"employee_id": "emp-42",
			"employee_name": "John Doe",
			"employee_email": "john@example.com",
			"manager_email": "manager@example.com",
			"amount": "-5.00"
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/expenses", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetWorkflow(t *testing.T) {
	s := newTestServer(t)
	res := s.submit(t)

	w := s.do(t, http.MethodGet,
		"/api/workflows/"+string(res.WorkflowID), "")
	require.Equal(t, http.StatusOK, w.Code)

	var got api.WorkflowResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, res.WorkflowID, got.WorkflowID)
	assert.Equal(t, api.StatusPendingApproval, got.Status)
	assert.Equal(t, api.StepAwaitingApproval, got.CurrentStep)
	assert.NotNil(t, got.SuspendedAt)
}

func TestGetWorkflowNotFound(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/workflows/workflow-missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCallbackApprove(t *testing.T) {
	s := newTestServer(t)
	res := s.submit(t)

	cp, err := s.store.Get(t.Context(), res.WorkflowID)
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, callbackPath(cp, "approve"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Expense Approved")

	final, err := s.store.Get(t.Context(), res.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, api.StatusPaymentProcessed, final.Status)
}

func TestCallbackReject(t *testing.T) {
	s := newTestServer(t)
	res := s.submit(t)

	cp, err := s.store.Get(t.Context(), res.WorkflowID)
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, callbackPath(cp, "reject"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Expense Rejected")

	final, err := s.store.Get(t.Context(), res.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, api.StatusRejected, final.Status)
}

func TestCallbackWrongToken(t *testing.T) {
	s := newTestServer(t)
	res := s.submit(t)

	w := s.do(t, http.MethodGet,
		"/callback?workflowId="+string(res.WorkflowID)+
			"&token=wrong&decision=approve", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired approval link")
}

func TestCallbackUnknownWorkflow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet,
		"/callback?workflowId=workflow-missing&token=x&decision=approve", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCallbackMissingParams(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{
		"/callback",
		"/callback?workflowId=workflow-1&token=x",
		"/callback?workflowId=workflow-1&token=x&decision=maybe",
		"/callback?token=x&decision=approve",
	} {
		w := s.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestCallbackReplay(t *testing.T) {
	s := newTestServer(t)
	res := s.submit(t)

	cp, err := s.store.Get(t.Context(), res.WorkflowID)
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, callbackPath(cp, "approve"), "")
	require.Equal(t, http.StatusOK, w.Code)

	// The replayed link reports the final status instead of re-approving
	w = s.do(t, http.MethodGet, callbackPath(cp, "approve"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already been processed")
	assert.Contains(t, w.Body.String(), string(api.StatusPaymentProcessed))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var res api.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "signoff", res.Service)
	assert.Equal(t, "healthy", res.Status)
	assert.Equal(t, "ok", res.Store)
}

func TestHealthDegraded(t *testing.T) {
	s := newTestServer(t)
	s.redis.Close()

	w := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var res api.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "degraded", res.Status)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodOptions, "/api/expenses", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func callbackPath(cp *api.Checkpoint, decision string) string {
	return "/callback?workflowId=" + string(cp.WorkflowID) +
		"&token=" + string(cp.ApprovalToken) +
		"&decision=" + decision
}
