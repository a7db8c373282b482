package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "dyntable/internal/db"
	"dyntable/internal/db/repository"
	"dyntable/internal/domain"
	"dyntable/internal/fieldtype"
	"dyntable/internal/service/table"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestServer wires the handlers to a real catalog and store sharing one
// SQLite file.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	path := filepath.Join(t.TempDir(), "api.sqlite")
	writeDB, readDB, err := internaldb.OpenSQLitePair(path, 2)
	require.NoError(t, err)
	require.NoError(t, internaldb.RunMigrations(writeDB))

	store, err := internaldb.OpenStore("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	svc := table.NewService(table.ServiceDeps{
		Catalog: repository.NewCatalogRepo(writeDB, readDB),
		Store:   repository.NewStoreRepo(store.DB, store.Dialect),
		Logger:  discardLogger(),
	})

	r := chi.NewRouter()
	NewHandler(svc, discardLogger()).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decodeError(t *testing.T, raw []byte) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func createTable(t *testing.T, srv *httptest.Server, name string, fields ...map[string]any) int64 {
	t.Helper()
	status, raw := doJSON(t, http.MethodPost, srv.URL+"/table", map[string]any{
		"table_name":   name,
		"table_fields": fields,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var resp createTableResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Positive(t, resp.TableID)
	return resp.TableID
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func field(name, kind string) map[string]any {
	return map[string]any{"field_name": name, "field_type": kind}
}

func TestHandler_TableLifecycle(t *testing.T) {
	srv := setupTestServer(t)
	id := createTable(t, srv, "orders", field("title", "string"), field("amount", "NUMBER"))
	base := srv.URL + "/table/" + itoa(id)

	status, raw := doJSON(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var detail tableDetailResponse
	require.NoError(t, json.Unmarshal(raw, &detail))
	assert.Equal(t, "orders", detail.TableName)
	assert.Equal(t, []fieldJSON{
		{FieldName: "title", FieldType: "STRING"},
		{FieldName: "amount", FieldType: "NUMBER"},
	}, detail.TableFields)

	status, raw = doJSON(t, http.MethodPost, base+"/row", map[string]any{"title": "first", "amount": 12})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var inserted insertRowResponse
	require.NoError(t, json.Unmarshal(raw, &inserted))
	assert.Equal(t, insertRowResponse{TableID: id, TableName: "orders", TableRowID: 1}, inserted)

	status, raw = doJSON(t, http.MethodPut, base, map[string]any{
		"new_table_fields": []map[string]any{field("title", "STRING"), field("paid", "boolean")},
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	var structure tableStructureResponse
	require.NoError(t, json.Unmarshal(raw, &structure))
	assert.Equal(t, tableStructureResponse{
		TableName: "orders",
		TableFields: []fieldJSON{
			{FieldName: "title", FieldType: "STRING"},
			{FieldName: "paid", FieldType: "BOOLEAN"},
		},
	}, structure)

	status, raw = doJSON(t, http.MethodGet, base+"/rows", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.JSONEq(t, `[{"id": 1, "title": "first", "paid": false}]`, string(raw))
}

func TestHandler_CreateTableErrors(t *testing.T) {
	srv := setupTestServer(t)
	createTable(t, srv, "taken", field("first", "NUMBER"))

	tests := []struct {
		name    string
		body    any
		status  int
		message string
		errors  map[string][]string
	}{
		{
			name:    "conflict",
			body:    map[string]any{"table_name": "taken", "table_fields": []any{field("first", "NUMBER")}},
			status:  http.StatusBadRequest,
			message: "Table taken already exists",
		},
		{
			name:   "missing_keys",
			body:   map[string]any{},
			status: http.StatusBadRequest,
			errors: map[string][]string{
				"table_name":   {table.MsgRequired},
				"table_fields": {table.MsgRequired},
			},
		},
		{
			name:   "wrong_shapes",
			body:   map[string]any{"table_name": 5, "table_fields": []any{map[string]any{"field_name": 1, "field_type": "STRING"}, "x"}},
			status: http.StatusBadRequest,
			errors: map[string][]string{
				"table_name":                {MsgTableNameString},
				"table_fields[0].field_name": {MsgFieldNameString},
				"table_fields[1]":            {"Invalid data. Expected an object, but got string."},
			},
		},
		{
			name:   "fields_not_a_list",
			body:   map[string]any{"table_name": "valid", "table_fields": "nope"},
			status: http.StatusBadRequest,
			errors: map[string][]string{"table_fields": {`Expected a list of items but got type "string".`}},
		},
		{
			name:   "semantic",
			body:   map[string]any{"table_name": "ab", "table_fields": []any{}},
			status: http.StatusBadRequest,
			errors: map[string][]string{
				"table_name":   {table.MsgTableNameShort},
				"table_fields": {table.MsgNoFields},
			},
		},
		{
			name:   "bad_kind",
			body:   map[string]any{"table_name": "valid", "table_fields": []any{field("first", "DATE")}},
			status: http.StatusBadRequest,
			errors: map[string][]string{"table_fields[0].field_type": {table.MsgFieldType}},
		},
		{
			name:    "malformed_json",
			body:    `{"table_name":`,
			status:  http.StatusBadRequest,
			message: MsgInvalidJSON,
		},
		{
			name:    "not_an_object",
			body:    `[1, 2]`,
			status:  http.StatusBadRequest,
			message: "Invalid data. Expected an object, but got array.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := doJSON(t, http.MethodPost, srv.URL+"/table", tt.body)
			require.Equal(t, tt.status, status, string(raw))
			body := decodeError(t, raw)
			assert.Equal(t, tt.status, body.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Message)
			}
			if tt.errors != nil {
				assert.Equal(t, tt.errors, body.Errors)
			}
		})
	}
}

func TestHandler_NotFoundAndBadID(t *testing.T) {
	srv := setupTestServer(t)

	for _, path := range []string{"/table/999", "/table/999/rows"} {
		status, raw := doJSON(t, http.MethodGet, srv.URL+path, nil)
		assert.Equal(t, http.StatusNotFound, status, path)
		assert.Equal(t, "Table name not found.", decodeError(t, raw).Message)
	}

	status, raw := doJSON(t, http.MethodPost, srv.URL+"/table/999/row", map[string]any{})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, http.StatusNotFound, decodeError(t, raw).Code)

	status, raw = doJSON(t, http.MethodGet, srv.URL+"/table/abc/rows", nil)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, map[string][]string{"table_id": {fieldtype.MsgInvalidInteger}}, decodeError(t, raw).Errors)
}

func TestHandler_AddRowValidation(t *testing.T) {
	srv := setupTestServer(t)
	id := createTable(t, srv, "people", field("full_name", "STRING"), field("age", "NUMBER"))

	status, raw := doJSON(t, http.MethodPost, srv.URL+"/table/"+itoa(id)+"/row", map[string]any{
		"age":   "old",
		"extra": 1,
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, map[string][]string{
		"full_name": {fieldtype.MsgRequired},
		"age":       {fieldtype.MsgInvalidInteger},
		"extra":     {fieldtype.MsgUnknownField},
	}, decodeError(t, raw).Errors)

	status, raw = doJSON(t, http.MethodGet, srv.URL+"/table/"+itoa(id)+"/rows", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestHandler_ListTablesPaging(t *testing.T) {
	srv := setupTestServer(t)
	for _, name := range []string{"alpha", "bravo", "charlie"} {
		createTable(t, srv, name, field("first", "NUMBER"))
	}

	status, raw := doJSON(t, http.MethodGet, srv.URL+"/table?max_results=2", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var page listTablesResponse
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Len(t, page.Tables, 2)
	assert.Equal(t, "alpha", page.Tables[0].TableName)
	require.NotEmpty(t, page.NextPageToken)

	status, raw = doJSON(t, http.MethodGet, srv.URL+"/table?max_results=2&page_token="+page.NextPageToken, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var next listTablesResponse
	require.NoError(t, json.Unmarshal(raw, &next))
	require.Len(t, next.Tables, 1)
	assert.Equal(t, "charlie", next.Tables[0].TableName)
	assert.Empty(t, next.NextPageToken)

	status, _ = doJSON(t, http.MethodGet, srv.URL+"/table?max_results=many", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandler_HealthAndOpenAPI(t *testing.T) {
	srv := setupTestServer(t)

	status, raw := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))

	status, raw = doJSON(t, http.MethodGet, srv.URL+"/openapi.json", nil)
	require.Equal(t, http.StatusOK, status)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
}

// stubService fails every call with err.
type stubService struct {
	TableService
	err error
}

func (s stubService) ListRows(context.Context, int64) ([]domain.Row, error) { return nil, s.err }
func (s stubService) Ping(context.Context) error                           { return s.err }

func TestHandler_StoreFailureIsOpaque(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubService{err: &domain.StoreError{Op: "select", Object: "table_x", Err: errors.New("disk I/O error")}}, discardLogger()).Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/table/1/rows", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":500,"message":"internal server error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHTTPStatusFromDomainError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound("x"), http.StatusNotFound},
		{domain.ErrValidation("x"), http.StatusBadRequest},
		{domain.ErrConflict("x"), http.StatusBadRequest},
		{domain.ErrAccessDenied("x"), http.StatusForbidden},
		{domain.ErrUnauthenticated("x"), http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, httpStatusFromDomainError(tt.err), tt.err.Error())
	}
}
