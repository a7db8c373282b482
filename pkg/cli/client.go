package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	HTTPStatus int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "API error (HTTP %d): %s", e.HTTPStatus, e.Message)
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, strings.Join(e.Fields[k], "; "))
	}
	return b.String()
}

// Field is one column in a table definition.
type Field struct {
	Name string `json:"field_name"`
	Type string `json:"field_type"`
}

// TableSummary is one entry of a table listing.
type TableSummary struct {
	ID   int64  `json:"table_id"`
	Name string `json:"table_name"`
}

// TablePage is one page of GET /table.
type TablePage struct {
	Tables        []TableSummary `json:"tables"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

// TableDetail is the response of GET /table/{id}.
type TableDetail struct {
	ID     int64   `json:"table_id"`
	Name   string  `json:"table_name"`
	Fields []Field `json:"table_fields"`
}

// TableStructure is the response of PUT /table/{id}.
type TableStructure struct {
	Name   string  `json:"table_name"`
	Fields []Field `json:"table_fields"`
}

// InsertedRow is the response of POST /table/{id}/row.
type InsertedRow struct {
	TableID   int64  `json:"table_id"`
	TableName string `json:"table_name"`
	RowID     int64  `json:"table_row_id"`
}

// Client talks to the dynamic table API.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client

	// Retries is how many times a GET answered with 429 or 503 is retried.
	Retries   uint64
	RetryBase time.Duration
}

// NewClient creates a Client for baseURL.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Retries:    2,
		RetryBase:  250 * time.Millisecond,
	}
}

// Do sends one request. A non-nil body is sent as JSON.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	u := strings.TrimRight(c.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// CheckError turns a non-2xx response into an *APIError. The body is consumed.
func CheckError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(resp.Body)

	apiErr := &APIError{HTTPStatus: resp.StatusCode}
	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Fields = body.Errors
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(data))
	return apiErr
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// call sends a request and decodes the JSON response into out.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempt := func(ctx context.Context) error {
		resp, err := c.Do(ctx, method, path, query, payload)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck

		if err := CheckError(resp); err != nil {
			if method == http.MethodGet && retryableStatus(resp.StatusCode) {
				return retry.RetryableError(err)
			}
			return err
		}
		if out == nil {
			return nil
		}
		dec := json.NewDecoder(resp.Body)
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	if c.Retries == 0 || method != http.MethodGet {
		return attempt(ctx)
	}
	backoff := retry.WithMaxRetries(c.Retries, retry.NewExponential(c.RetryBase))
	return retry.Do(ctx, backoff, attempt)
}

func tablePath(id int64, suffix string) string {
	return "/table/" + strconv.FormatInt(id, 10) + suffix
}

// ListTables fetches one page of tables.
func (c *Client) ListTables(ctx context.Context, maxResults int, pageToken string) (*TablePage, error) {
	q := url.Values{}
	if maxResults > 0 {
		q.Set("max_results", strconv.Itoa(maxResults))
	}
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}
	var page TablePage
	if err := c.call(ctx, http.MethodGet, "/table", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAllTables follows next_page_token until the listing is exhausted.
func (c *Client) ListAllTables(ctx context.Context) ([]TableSummary, error) {
	all := []TableSummary{}
	token := ""
	for {
		page, err := c.ListTables(ctx, 0, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Tables...)
		if page.NextPageToken == "" || page.NextPageToken == token {
			return all, nil
		}
		token = page.NextPageToken
	}
}

// GetTable fetches a table's name and fields.
func (c *Client) GetTable(ctx context.Context, id int64) (*TableDetail, error) {
	var t TableDetail
	if err := c.call(ctx, http.MethodGet, tablePath(id, ""), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTable creates a table and returns its id.
func (c *Client) CreateTable(ctx context.Context, name string, fields []Field) (int64, error) {
	if fields == nil {
		fields = []Field{}
	}
	req := map[string]any{"table_name": name, "table_fields": fields}
	var resp struct {
		TableID int64 `json:"table_id"`
	}
	if err := c.call(ctx, http.MethodPost, "/table", nil, req, &resp); err != nil {
		return 0, err
	}
	return resp.TableID, nil
}

// AlterTable replaces a table's field list.
func (c *Client) AlterTable(ctx context.Context, id int64, fields []Field) (*TableStructure, error) {
	if fields == nil {
		fields = []Field{}
	}
	req := map[string]any{"new_table_fields": fields}
	var t TableStructure
	if err := c.call(ctx, http.MethodPut, tablePath(id, ""), nil, req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// InsertRow adds one row.
func (c *Client) InsertRow(ctx context.Context, id int64, values map[string]any) (*InsertedRow, error) {
	if values == nil {
		values = map[string]any{}
	}
	var row InsertedRow
	if err := c.call(ctx, http.MethodPost, tablePath(id, "/row"), nil, values, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListRows fetches every row of a table. Numbers are returned as json.Number.
func (c *Client) ListRows(ctx context.Context, id int64) ([]map[string]any, error) {
	var rows []map[string]any
	if err := c.call(ctx, http.MethodGet, tablePath(id, "/rows"), nil, nil, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

// Health reports whether the server answers /healthz with 200.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}
