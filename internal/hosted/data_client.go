package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// DataClient is the call surface of the hosted data service: a table-scoped
// query builder supporting filter-by-equality, ordering, limit, and
// insert-with-return.
type DataClient interface {
	From(table string) Query
}

// Query builds and executes one request against a named collection. Builder
// methods return the query for chaining; terminal methods execute it.
type Query interface {
	// Select restricts the returned columns ("*" for all).
	Select(columns string) Query
	// Eq adds an equality filter on a column.
	Eq(column, value string) Query
	// Order sorts by a column.
	Order(column string, ascending bool) Query
	// Limit caps the number of returned rows.
	Limit(n int) Query
	// WithToken scopes the request to a user's access token so the hosted
	// service applies its row-level rules. Without it the client's default
	// key is used.
	WithToken(accessToken string) Query

	// Get executes the query and decodes the rows into dest (a pointer to a
	// slice).
	Get(ctx context.Context, dest interface{}) error
	// Insert posts a row and decodes the created representation into dest.
	// dest may be nil when the caller does not need the created row.
	Insert(ctx context.Context, row, dest interface{}) error
}

// RESTDataClient talks to a PostgREST-style surface: each collection is a
// resource under the base URL, filters are query parameters.
type RESTDataClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewRESTDataClient creates a data client. Server-side callers pass the
// privileged service key; it must never be handed to browser-facing code.
func NewRESTDataClient(baseURL, apiKey string) *RESTDataClient {
	return &RESTDataClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// From starts a query against a named collection.
func (c *RESTDataClient) From(table string) Query {
	return &restQuery{
		client: c,
		table:  table,
		params: url.Values{},
	}
}

type restQuery struct {
	client *RESTDataClient
	table  string
	params url.Values
	token  string
}

func (q *restQuery) Select(columns string) Query {
	q.params.Set("select", columns)
	return q
}

func (q *restQuery) Eq(column, value string) Query {
	q.params.Set(column, "eq."+value)
	return q
}

func (q *restQuery) Order(column string, ascending bool) Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

func (q *restQuery) Limit(n int) Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

func (q *restQuery) WithToken(accessToken string) Query {
	q.token = accessToken
	return q
}

func (q *restQuery) Get(ctx context.Context, dest interface{}) error {
	req, err := q.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return err
	}
	return q.do(req, dest)
}

func (q *restQuery) Insert(ctx context.Context, row, dest interface{}) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return domain.NewInternalError("ENCODE_FAILED", "Failed to encode row", err)
	}

	req, err := q.newRequest(ctx, http.MethodPost, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	if dest == nil {
		return q.do(req, nil)
	}

	// Insert-with-return yields a single-element array.
	var rows json.RawMessage
	if err := q.do(req, &rows); err != nil {
		return err
	}
	return decodeSingle(rows, dest)
}

func (q *restQuery) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	u := q.client.baseURL + "/" + q.table
	if encoded := q.params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, domain.NewInternalError("REQUEST_FAILED", "Failed to build data service request", err)
	}
	req.Header.Set("apikey", q.client.apiKey)
	token := q.token
	if token == "" {
		token = q.client.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (q *restQuery) do(req *http.Request, dest interface{}) error {
	resp, err := q.client.http.Do(req)
	if err != nil {
		return domain.NewExternalServiceError("DATA_SERVICE_UNREACHABLE",
			"Hosted data service unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return domain.NewExternalServiceError("DATA_READ_FAILED",
			"Failed to read data service response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.NewAuthenticationError("DATA_ACCESS_DENIED",
			"Hosted data service rejected the request credentials")
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewNotFoundError("COLLECTION_NOT_FOUND",
			fmt.Sprintf("Collection %q not found", q.table))
	case resp.StatusCode >= 400:
		return domain.NewExternalServiceError("DATA_SERVICE_ERROR",
			fmt.Sprintf("Hosted data service returned status %d", resp.StatusCode), nil)
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return domain.NewExternalServiceError("DATA_DECODE_FAILED",
			"Failed to decode data service response", err)
	}
	return nil
}

// decodeSingle unwraps a one-element JSON array into dest.
func decodeSingle(rows json.RawMessage, dest interface{}) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(rows, &elems); err != nil {
		return domain.NewExternalServiceError("DATA_DECODE_FAILED",
			"Failed to decode created row", err)
	}
	if len(elems) == 0 {
		return domain.NewExternalServiceError("EMPTY_REPRESENTATION",
			"Hosted data service returned no created row", nil)
	}
	if err := json.Unmarshal(elems[0], dest); err != nil {
		return domain.NewExternalServiceError("DATA_DECODE_FAILED",
			"Failed to decode created row", err)
	}
	return nil
}
