package services

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// ConnectorService performs the "verify connection" check when a data source
// is created. A failed check marks the source disconnected; it is never fatal
// to the create operation.
type ConnectorService interface {
	// Verify returns the status the source should be stored with.
	Verify(ctx context.Context, source *domain.DataSource) domain.DataSourceStatus
}

// githubSourceConfig is the config shape of github-type sources.
type githubSourceConfig struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Token string `json:"token,omitempty"`
}

// urlSourceConfig is the config shape of postgres/mysql/api/csv sources.
type urlSourceConfig struct {
	URL string `json:"url"`
}

type connectorService struct {
	// newGitHubClient is swappable for tests.
	newGitHubClient func(token string) *github.Client
}

// NewConnectorService creates a connector service using the public GitHub
// API for github-type sources.
func NewConnectorService() ConnectorService {
	return &connectorService{
		newGitHubClient: func(token string) *github.Client {
			client := github.NewClient(nil)
			if token != "" {
				client = client.WithAuthToken(token)
			}
			return client
		},
	}
}

func (s *connectorService) Verify(ctx context.Context, source *domain.DataSource) domain.DataSourceStatus {
	switch source.Type {
	case domain.GitHubSource:
		return s.verifyGitHub(ctx, source.Config)
	case domain.PostgresSource, domain.MySQLSource:
		return verifyDatabaseURL(source.Config, source.Type)
	case domain.APISource, domain.CSVSource:
		return verifyHTTPURL(source.Config)
	default:
		return domain.SourceDisconnected
	}
}

// verifyGitHub checks that the configured repository is reachable with the
// configured token.
func (s *connectorService) verifyGitHub(ctx context.Context, config json.RawMessage) domain.DataSourceStatus {
	var cfg githubSourceConfig
	if err := json.Unmarshal(config, &cfg); err != nil || cfg.Owner == "" || cfg.Repo == "" {
		return domain.SourceError
	}

	client := s.newGitHubClient(cfg.Token)
	if _, _, err := client.Repositories.Get(ctx, cfg.Owner, cfg.Repo); err != nil {
		return domain.SourceDisconnected
	}
	return domain.SourceConnected
}

// verifyDatabaseURL is a shape check only: this application never opens
// database connections itself, the execution backend does.
func verifyDatabaseURL(config json.RawMessage, sourceType domain.DataSourceType) domain.DataSourceStatus {
	var cfg urlSourceConfig
	if err := json.Unmarshal(config, &cfg); err != nil || cfg.URL == "" {
		return domain.SourceError
	}

	u, err := url.Parse(cfg.URL)
	if err != nil || u.Host == "" {
		return domain.SourceError
	}

	wantScheme := "postgres"
	if sourceType == domain.MySQLSource {
		wantScheme = "mysql"
	}
	if !strings.HasPrefix(u.Scheme, wantScheme) {
		return domain.SourceError
	}
	return domain.SourceConnected
}

func verifyHTTPURL(config json.RawMessage) domain.DataSourceStatus {
	var cfg urlSourceConfig
	if err := json.Unmarshal(config, &cfg); err != nil || cfg.URL == "" {
		return domain.SourceError
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.SourceError
	}
	return domain.SourceConnected
}
