package hosted

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipedeck/pipedeck/internal/domain"
)

type sourceRow struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

func TestGet_BuildsFilterQuery(t *testing.T) {
	var (
		gotPath   string
		gotQuery  map[string]string
		gotAPIKey string
		gotAuth   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"src-1","user_id":"user1","name":"warehouse"}]`))
	}))
	defer server.Close()

	client := NewRESTDataClient(server.URL, "service-key")

	var rows []sourceRow
	err := client.From("data_sources").
		Select("*").
		Eq("user_id", "user1").
		Order("created_at", false).
		Limit(20).
		Get(context.Background(), &rows)
	require.NoError(t, err)

	assert.Equal(t, "/data_sources", gotPath)
	assert.Equal(t, map[string]string{
		"select":  "*",
		"user_id": "eq.user1",
		"order":   "created_at.desc",
		"limit":   "20",
	}, gotQuery)
	assert.Equal(t, "service-key", gotAPIKey)
	assert.Equal(t, "Bearer service-key", gotAuth, "default credential doubles as the bearer token")

	require.Len(t, rows, 1)
	assert.Equal(t, "src-1", rows[0].ID)
}

func TestWithToken_OverridesBearer(t *testing.T) {
	var gotAuth, gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("apikey")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewRESTDataClient(server.URL, "service-key")

	var rows []sourceRow
	err := client.From("data_sources").WithToken("user-token").Get(context.Background(), &rows)
	require.NoError(t, err)

	assert.Equal(t, "Bearer user-token", gotAuth, "user token must scope the request")
	assert.Equal(t, "service-key", gotAPIKey, "apikey header stays the client credential")
}

func TestInsert_DecodesReturnedRepresentation(t *testing.T) {
	var gotPrefer, gotContentType string
	var gotBody sourceRow
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrefer = r.Header.Get("Prefer")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"src-9","user_id":"user1","name":"warehouse"}]`))
	}))
	defer server.Close()

	client := NewRESTDataClient(server.URL, "service-key")

	var created sourceRow
	err := client.From("data_sources").Insert(context.Background(),
		sourceRow{UserID: "user1", Name: "warehouse"}, &created)
	require.NoError(t, err)

	assert.Equal(t, "return=representation", gotPrefer)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "warehouse", gotBody.Name)
	assert.Equal(t, "src-9", created.ID, "server-assigned id comes back through the representation")
}

func TestInsert_EmptyRepresentationIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewRESTDataClient(server.URL, "service-key")

	var created sourceRow
	err := client.From("data_sources").Insert(context.Background(), sourceRow{}, &created)
	require.Error(t, err)

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "EMPTY_REPRESENTATION", domainErr.Code)
}

func TestDo_MapsServiceStatuses(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		wantType domain.ErrorType
		wantCode string
	}{
		{"unauthorized", http.StatusUnauthorized, domain.AuthenticationError, "DATA_ACCESS_DENIED"},
		{"forbidden", http.StatusForbidden, domain.AuthenticationError, "DATA_ACCESS_DENIED"},
		{"missing collection", http.StatusNotFound, domain.NotFoundError, "COLLECTION_NOT_FOUND"},
		{"server failure", http.StatusInternalServerError, domain.ExternalServiceError, "DATA_SERVICE_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := NewRESTDataClient(server.URL, "service-key")

			var rows []sourceRow
			err := client.From("data_sources").Get(context.Background(), &rows)
			require.Error(t, err)

			var domainErr *domain.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tc.wantType, domainErr.Type)
			assert.Equal(t, tc.wantCode, domainErr.Code)
		})
	}
}

func TestGet_UnreachableServiceIsExternalError(t *testing.T) {
	client := NewRESTDataClient("http://127.0.0.1:1", "service-key")

	var rows []sourceRow
	err := client.From("data_sources").Get(context.Background(), &rows)
	require.Error(t, err)

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ExternalServiceError, domainErr.Type)
	assert.Equal(t, "DATA_SERVICE_UNREACHABLE", domainErr.Code)
}
