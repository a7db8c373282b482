// Package api exposes the dynamic table service over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"dyntable/internal/domain"
	"dyntable/internal/service/table"
)

// TableService is the subset of *table.Service the handlers call.
type TableService interface {
	CreateTable(ctx context.Context, name string, fields []table.FieldRequest) (*domain.CatalogEntry, error)
	UpdateStructure(ctx context.Context, id int64, fields []table.FieldRequest) (*table.Table, error)
	AddRow(ctx context.Context, id int64, input map[string]any) (*table.InsertedRow, error)
	ListRows(ctx context.Context, id int64) ([]domain.Row, error)
	GetTable(ctx context.Context, id int64) (*table.Table, error)
	ListTables(ctx context.Context, page domain.PageRequest) ([]domain.CatalogEntry, int64, error)
	Ping(ctx context.Context) error
}

// Handler serves the table and row endpoints.
type Handler struct {
	tables TableService
	logger *slog.Logger

	specOnce sync.Once
	spec     []byte
	specErr  error
}

// NewHandler creates a new Handler.
func NewHandler(tables TableService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{tables: tables, logger: logger.With("component", "api")}
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/openapi.json", h.OpenAPI)

	r.Post("/table", h.CreateTable)
	r.Get("/table", h.ListTables)
	r.Get("/table/{id}", h.GetTable)
	r.Put("/table/{id}", h.UpdateTableStructure)
	r.Post("/table/{id}/row", h.AddRow)
	r.Get("/table/{id}/rows", h.ListRows)
}

type fieldJSON struct {
	FieldName string `json:"field_name"`
	FieldType string `json:"field_type"`
}

type createTableResponse struct {
	TableID int64 `json:"table_id"`
}

type tableStructureResponse struct {
	TableName   string      `json:"table_name"`
	TableFields []fieldJSON `json:"table_fields"`
}

type tableDetailResponse struct {
	TableID     int64       `json:"table_id"`
	TableName   string      `json:"table_name"`
	TableFields []fieldJSON `json:"table_fields"`
}

type tableSummary struct {
	TableID   int64  `json:"table_id"`
	TableName string `json:"table_name"`
}

type listTablesResponse struct {
	Tables        []tableSummary `json:"tables"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

type insertRowResponse struct {
	TableID    int64  `json:"table_id"`
	TableName  string `json:"table_name"`
	TableRowID int64  `json:"table_row_id"`
}

func fieldsToJSON(fields []domain.LogicalField) []fieldJSON {
	out := make([]fieldJSON, len(fields))
	for i, f := range fields {
		out[i] = fieldJSON{FieldName: f.Name, FieldType: string(f.Kind)}
	}
	return out
}

// CreateTable handles POST /table.
func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entry, err := h.tables.CreateTable(r.Context(), req.Name, req.Fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createTableResponse{TableID: entry.ID})
}

// ListTables handles GET /table.
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entries, total, err := h.tables.ListTables(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := listTablesResponse{
		Tables:        make([]tableSummary, len(entries)),
		NextPageToken: page.NextPageToken(total),
	}
	for i, e := range entries {
		resp.Tables[i] = tableSummary{TableID: e.ID, TableName: e.LogicalName}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTable handles GET /table/{id}.
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	id, err := tableIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.tables.GetTable(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tableDetailResponse{
		TableID:     t.Entry.ID,
		TableName:   t.Entry.LogicalName,
		TableFields: fieldsToJSON(t.Schema.Fields),
	})
}

// UpdateTableStructure handles PUT /table/{id}.
func (h *Handler) UpdateTableStructure(w http.ResponseWriter, r *http.Request) {
	id, err := tableIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	fields, err := decodeUpdateTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.tables.UpdateStructure(r.Context(), id, fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tableStructureResponse{
		TableName:   t.Entry.LogicalName,
		TableFields: fieldsToJSON(t.Schema.Fields),
	})
}

// AddRow handles POST /table/{id}/row.
func (h *Handler) AddRow(w http.ResponseWriter, r *http.Request) {
	id, err := tableIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body, err := decodeObject(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	inserted, err := h.tables.AddRow(r.Context(), id, body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, insertRowResponse{
		TableID:    inserted.Entry.ID,
		TableName:  inserted.Entry.LogicalName,
		TableRowID: inserted.RowID,
	})
}

// ListRows handles GET /table/{id}/rows.
func (h *Handler) ListRows(w http.ResponseWriter, r *http.Request) {
	id, err := tableIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rows, err := h.tables.ListRows(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.tables.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Code:    http.StatusServiceUnavailable,
			Message: "unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// OpenAPI handles GET /openapi.json.
func (h *Handler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	h.specOnce.Do(func() {
		h.spec, h.specErr = renderOpenAPI(context.WithoutCancel(r.Context()))
	})
	if h.specErr != nil {
		h.writeError(w, r, h.specErr)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.spec)
}
