package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// sessionCookieName mirrors the server's session cookie. Login captures the
// token from it so later requests can send it as a bearer header.
const sessionCookieName = "pd_session"

// APIClient handles communication with the PipeDeck API
type APIClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewAPIClientFromProfile creates an API client from a profile
func NewAPIClientFromProfile(profile *Profile) *APIClient {
	if profile == nil {
		return nil
	}
	return NewAPIClient(profile.ServerURL, profile.Token)
}

// APIError represents an API error response
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (%d): %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// envelope is the server's standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// doRequest performs an HTTP request with authentication
func (c *APIClient) doRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	fullURL, err := url.JoinPath(c.BaseURL, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to join URL path: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// handleResponse processes the HTTP response and handles errors
// Note: This function automatically closes the response body
//
//nolint:bodyclose // Response body is closed by this function
func (c *APIClient) handleResponse(resp *http.Response, result interface{}) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode >= 400 {
		apiError := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil && env.Error != nil {
			apiError.Code = env.Error.Code
			apiError.Message = env.Error.Message
		}
		if apiError.Message == "" {
			apiError.Message = string(body)
		}
		return apiError
	}

	if result != nil && decodeErr == nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// Health checks the API health
func (c *APIClient) Health() error {
	ctx := context.Background()
	//nolint:bodyclose // Response body is closed by handleResponse
	resp, err := c.doRequest(ctx, "GET", "/health", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// LoginResponse represents the response from login
type LoginResponse struct {
	Token string
	User  domain.User
}

// Login authenticates with email and password. The access token arrives in
// the session cookie; it is captured for subsequent bearer-token requests.
func (c *APIClient) Login(email, password string) (*LoginResponse, error) {
	loginReq := map[string]string{
		"email":    email,
		"password": password,
	}

	ctx := context.Background()
	//nolint:bodyclose // Response body is closed by handleResponse
	resp, err := c.doRequest(ctx, "POST", "/api/auth/login", loginReq)
	if err != nil {
		return nil, err
	}

	var token string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookieName {
			token = cookie.Value
		}
	}

	var data struct {
		User domain.User `json:"user"`
	}
	if err := c.handleResponse(resp, &data); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("login succeeded but no session cookie was returned")
	}

	c.Token = token
	return &LoginResponse{Token: token, User: data.User}, nil
}

// Logout revokes the current session.
func (c *APIClient) Logout() error {
	ctx := context.Background()
	//nolint:bodyclose // Response body is closed by handleResponse
	resp, err := c.doRequest(ctx, "POST", "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	return c.handleResponse(resp, nil)
}

// GetSessionUser returns the user behind the current token.
func (c *APIClient) GetSessionUser() (*domain.User, error) {
	ctx := context.Background()
	//nolint:bodyclose // Response body is closed by handleResponse
	resp, err := c.doRequest(ctx, "GET", "/api/auth/session", nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		User domain.User `json:"user"`
	}
	if err := c.handleResponse(resp, &data); err != nil {
		return nil, err
	}
	return &data.User, nil
}

// GetDataSources retrieves the caller's data sources
func (c *APIClient) GetDataSources() ([]domain.DataSource, error) {
	ctx := context.Background()
	//nolint:bodyclose // Response body is closed by handleResponse
	resp, err := c.doRequest(ctx, "GET", "/api/data-sources", nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		DataSources []domain.DataSource `json:"data_sources"`
	}
	err = c.handleResponse(resp, &data)
	return data.DataSources, err
}

// CreateDataSourceRequest represents a data source creation request
type CreateDataSourceRequest struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
}

// CreateDataSource registers a new data source
func (c *APIClient) CreateDataSource(req *CreateDataSourceRequest) (*domain.DataSource, error) {
	ctx := context.Background()
	//nolint:bodyclose // Response body is closed by handleResponse
	resp, err := c.doRequest(ctx, "POST", "/api/data-sources", req)
	if err != nil {
		return nil, err
	}

	var data struct {
		DataSource domain.DataSource `json:"data_source"`
	}
	err = c.handleResponse(resp, &data)
	return &data.DataSource, err
}

// GetPipelines retrieves the caller's pipelines
func (c *APIClient) GetPipelines() ([]domain.Pipeline, error) {
	ctx := context.Background()
	//nolint:bodyclose // Response body is closed by handleResponse
	resp, err := c.doRequest(ctx, "GET", "/api/pipelines", nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Pipelines []domain.Pipeline `json:"pipelines"`
	}
	err = c.handleResponse(resp, &data)
	return data.Pipelines, err
}

// CreatePipelineRequest represents a pipeline creation request
type CreatePipelineRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Steps         json.RawMessage `json:"steps,omitempty"`
	Schedule      string          `json:"schedule,omitempty"`
	DataSourceIDs []string        `json:"data_source_ids,omitempty"`
}

// CreatePipeline creates a new draft pipeline
func (c *APIClient) CreatePipeline(req *CreatePipelineRequest) (*domain.Pipeline, error) {
	ctx := context.Background()
	//nolint:bodyclose // Response body is closed by handleResponse
	resp, err := c.doRequest(ctx, "POST", "/api/pipelines", req)
	if err != nil {
		return nil, err
	}

	var data struct {
		Pipeline domain.Pipeline `json:"pipeline"`
	}
	err = c.handleResponse(resp, &data)
	return &data.Pipeline, err
}

// GetPipelineRuns retrieves the recent run history of a pipeline
func (c *APIClient) GetPipelineRuns(pipelineID string, limit int) ([]domain.PipelineRun, error) {
	endpoint := fmt.Sprintf("/api/pipelines/%s/runs", url.PathEscape(pipelineID))
	if limit > 0 {
		endpoint += fmt.Sprintf("?limit=%d", limit)
	}

	ctx := context.Background()
	//nolint:bodyclose // Response body is closed by handleResponse
	resp, err := c.doRequest(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Runs []domain.PipelineRun `json:"runs"`
	}
	err = c.handleResponse(resp, &data)
	return data.Runs, err
}

// GetAnalyticsSummary retrieves the caller's aggregate figures
func (c *APIClient) GetAnalyticsSummary() (map[string]interface{}, error) {
	ctx := context.Background()
	//nolint:bodyclose // Response body is closed by handleResponse
	resp, err := c.doRequest(ctx, "GET", "/api/analytics/summary", nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Summary map[string]interface{} `json:"summary"`
	}
	err = c.handleResponse(resp, &data)
	return data.Summary, err
}

// TestConnection tests the connection to the API
func (c *APIClient) TestConnection() error {
	return c.Health()
}
