package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v66/github"

	"github.com/pipedeck/pipedeck/internal/domain"
)

func TestVerify_URLSources(t *testing.T) {
	svc := NewConnectorService()

	cases := []struct {
		name   string
		typ    domain.DataSourceType
		config string
		want   domain.DataSourceStatus
	}{
		{"postgres ok", domain.PostgresSource, `{"url":"postgres://db.internal:5432/app"}`, domain.SourceConnected},
		{"postgresql scheme ok", domain.PostgresSource, `{"url":"postgresql://db.internal/app"}`, domain.SourceConnected},
		{"postgres wrong scheme", domain.PostgresSource, `{"url":"mysql://db.internal/app"}`, domain.SourceError},
		{"mysql ok", domain.MySQLSource, `{"url":"mysql://db.internal:3306/app"}`, domain.SourceConnected},
		{"missing url", domain.PostgresSource, `{}`, domain.SourceError},
		{"invalid json", domain.PostgresSource, `{`, domain.SourceError},
		{"api https ok", domain.APISource, `{"url":"https://api.example.com/v1"}`, domain.SourceConnected},
		{"api bad scheme", domain.APISource, `{"url":"ftp://example.com"}`, domain.SourceError},
		{"csv http ok", domain.CSVSource, `{"url":"http://files.example.com/data.csv"}`, domain.SourceConnected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			source := &domain.DataSource{Type: tc.typ, Config: json.RawMessage(tc.config)}
			if got := svc.Verify(context.Background(), source); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestVerify_GitHubSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/pipedeck/website" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":1,"name":"website","full_name":"pipedeck/website"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := &connectorService{
		newGitHubClient: func(_ string) *github.Client {
			client := github.NewClient(nil)
			baseURL, _ := url.Parse(server.URL + "/")
			client.BaseURL = baseURL
			return client
		},
	}

	t.Run("reachable repo is connected", func(t *testing.T) {
		source := &domain.DataSource{
			Type:   domain.GitHubSource,
			Config: json.RawMessage(`{"owner":"pipedeck","repo":"website"}`),
		}
		if got := svc.Verify(context.Background(), source); got != domain.SourceConnected {
			t.Errorf("expected connected, got %s", got)
		}
	})

	t.Run("missing repo is disconnected", func(t *testing.T) {
		source := &domain.DataSource{
			Type:   domain.GitHubSource,
			Config: json.RawMessage(`{"owner":"pipedeck","repo":"gone"}`),
		}
		if got := svc.Verify(context.Background(), source); got != domain.SourceDisconnected {
			t.Errorf("expected disconnected, got %s", got)
		}
	})

	t.Run("incomplete config is an error", func(t *testing.T) {
		source := &domain.DataSource{
			Type:   domain.GitHubSource,
			Config: json.RawMessage(`{"owner":"pipedeck"}`),
		}
		if got := svc.Verify(context.Background(), source); got != domain.SourceError {
			t.Errorf("expected error status, got %s", got)
		}
	})
}

func TestVerify_UnknownTypeIsDisconnected(t *testing.T) {
	svc := NewConnectorService()
	source := &domain.DataSource{Type: "ldap", Config: json.RawMessage(`{}`)}
	if got := svc.Verify(context.Background(), source); got != domain.SourceDisconnected {
		t.Errorf("expected disconnected for unknown type, got %s", got)
	}
}
