// Package testutil provides testing utilities and helpers.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// NewTestRouter creates a new Gin router for testing.
func NewTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// TestCase represents a test case for HTTP handlers.
type TestCase struct {
	Body           interface{}
	ExpectedBody   interface{}
	Headers        map[string]string
	Cookies        []*http.Cookie
	SetupFunc      func(t *testing.T)
	Name           string
	Method         string
	URL            string
	ExpectedStatus int
}

// HTTPTestHelper provides utilities for HTTP testing.
type HTTPTestHelper struct {
	router *gin.Engine
	t      *testing.T
}

// NewHTTPTestHelper creates a new HTTP test helper.
func NewHTTPTestHelper(t *testing.T, router *gin.Engine) *HTTPTestHelper {
	return &HTTPTestHelper{
		router: router,
		t:      t,
	}
}

// Request performs an HTTP request and returns the response.
func (h *HTTPTestHelper) Request(
	method,
	url string,
	body interface{},
	headers map[string]string,
	cookies ...*http.Cookie,
) *httptest.ResponseRecorder {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("Failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		h.t.Fatalf("Failed to create request: %v", err)
	}

	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)
	return recorder
}

// GET performs a GET request.
func (h *HTTPTestHelper) GET(url string, headers map[string]string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return h.Request("GET", url, nil, headers, cookies...)
}

// POST performs a POST request.
func (h *HTTPTestHelper) POST(
	url string,
	body interface{},
	headers map[string]string,
	cookies ...*http.Cookie,
) *httptest.ResponseRecorder {
	return h.Request("POST", url, body, headers, cookies...)
}

// AssertStatus asserts that the response has the expected status code.
func (h *HTTPTestHelper) AssertStatus(recorder *httptest.ResponseRecorder, expectedStatus int) {
	if recorder.Code != expectedStatus {
		h.t.Errorf("Status code mismatch. Expected: %d, Actual: %d. Body: %s",
			expectedStatus, recorder.Code, recorder.Body.String())
	}
}

// RunTestCases runs a slice of test cases.
func (h *HTTPTestHelper) RunTestCases(testCases []TestCase) {
	for _, tc := range testCases {
		h.t.Run(tc.Name, func(t *testing.T) {
			if tc.SetupFunc != nil {
				tc.SetupFunc(t)
			}

			recorder := h.Request(tc.Method, tc.URL, tc.Body, tc.Headers, tc.Cookies...)
			h.AssertStatus(recorder, tc.ExpectedStatus)
		})
	}
}

// MockUser creates a mock user for testing.
func MockUser(id, email, name string) *domain.User {
	return &domain.User{
		ID:        id,
		Email:     email,
		Name:      name,
		CreatedAt: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
	}
}

// MockSession creates a mock session for testing.
func MockSession(token string, user *domain.User) *domain.Session {
	return &domain.Session{
		AccessToken:  token,
		RefreshToken: token + "-refresh",
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         user,
	}
}

// MockDataSource creates a mock data source for testing.
func MockDataSource(id, userID, name string, status domain.DataSourceStatus) *domain.DataSource {
	return &domain.DataSource{
		ID:        id,
		UserID:    userID,
		Name:      name,
		Type:      domain.PostgresSource,
		Status:    status,
		Config:    json.RawMessage(`{"url":"postgres://localhost/app"}`),
		CreatedAt: time.Now(),
	}
}

// MockPipeline creates a mock pipeline for testing.
func MockPipeline(id, userID, name string, status domain.PipelineStatus) *domain.Pipeline {
	return &domain.Pipeline{
		ID:        id,
		UserID:    userID,
		Name:      name,
		Status:    status,
		Steps:     json.RawMessage(`[{"op":"extract"},{"op":"load"}]`),
		CreatedAt: time.Now(),
	}
}

// MockRun creates a mock pipeline run for testing.
func MockRun(id, pipelineID string, status domain.RunStatus, rows int64) *domain.PipelineRun {
	started := time.Now().Add(-time.Minute)
	run := &domain.PipelineRun{
		ID:            id,
		PipelineID:    pipelineID,
		Status:        status,
		RowsProcessed: rows,
		StartedAt:     started,
	}
	if status != domain.RunRunning {
		finished := started.Add(30 * time.Second)
		run.FinishedAt = &finished
	}
	return run
}
