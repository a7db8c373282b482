package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"dyntable/internal/domain"
	"dyntable/internal/fieldtype"
	"dyntable/internal/service/table"
)

// Shape messages for request bodies.
const (
	MsgTableNameString = "Table name must be a string"
	MsgFieldNameString = "Field name must be a string."
	MsgInvalidJSON     = "Malformed JSON request body."
)

const maxBodyBytes = 1 << 20

// decodeObject reads the request body as a JSON object. Numbers are kept as
// json.Number so integer values survive without float rounding.
func decodeObject(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrValidation("Request body is empty.")
		}
		return nil, domain.ErrValidation("%s", MsgInvalidJSON)
	}
	if dec.More() {
		return nil, domain.ErrValidation("%s", MsgInvalidJSON)
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, domain.ErrValidation("Invalid data. Expected an object, but got %s.", jsonTypeName(body))
	}
	return obj, nil
}

// decodeFieldList extracts a list of {field_name, field_type} objects stored
// under key. Semantic checks (length, kind, uniqueness) happen in the service.
func decodeFieldList(body map[string]any, key string, fe domain.FieldErrors) []table.FieldRequest {
	raw, ok := body[key]
	if !ok || raw == nil {
		fe.Add(key, table.MsgRequired)
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		fe.Add(key, fmt.Sprintf("Expected a list of items but got type %q.", jsonTypeName(raw)))
		return nil
	}

	fields := make([]table.FieldRequest, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("%s[%d]", key, i)
		obj, ok := item.(map[string]any)
		if !ok {
			fe.Add(prefix, fmt.Sprintf("Invalid data. Expected an object, but got %s.", jsonTypeName(item)))
			continue
		}
		name, nameOK := requireString(obj, "field_name", MsgFieldNameString, prefix, fe)
		kind, kindOK := requireString(obj, "field_type", fieldtype.MsgInvalidString, prefix, fe)
		if nameOK && kindOK {
			fields = append(fields, table.FieldRequest{Name: name, Type: kind})
		}
	}
	return fields
}

func requireString(obj map[string]any, key, notString, prefix string, fe domain.FieldErrors) (string, bool) {
	path := key
	if prefix != "" {
		path = prefix + "." + key
	}
	raw, ok := obj[key]
	if !ok || raw == nil {
		fe.Add(path, table.MsgRequired)
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		fe.Add(path, notString)
		return "", false
	}
	return s, true
}

type createTableRequest struct {
	Name   string
	Fields []table.FieldRequest
}

func decodeCreateTable(r *http.Request) (*createTableRequest, error) {
	body, err := decodeObject(r)
	if err != nil {
		return nil, err
	}
	fe := domain.FieldErrors{}
	name, _ := requireString(body, "table_name", MsgTableNameString, "", fe)
	fields := decodeFieldList(body, "table_fields", fe)
	if err := fe.Err(); err != nil {
		return nil, err
	}
	return &createTableRequest{Name: name, Fields: fields}, nil
}

func decodeUpdateTable(r *http.Request) ([]table.FieldRequest, error) {
	body, err := decodeObject(r)
	if err != nil {
		return nil, err
	}
	fe := domain.FieldErrors{}
	fields := decodeFieldList(body, "new_table_fields", fe)
	if err := fe.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}

// tableIDParam binds the {id} path segment.
func tableIDParam(r *http.Request) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		fe := domain.FieldErrors{}
		fe.Add("table_id", fieldtype.MsgInvalidInteger)
		return 0, fe.Err()
	}
	return id, nil
}

// pageParams binds max_results and page_token.
func pageParams(query url.Values) (domain.PageRequest, error) {
	var (
		maxResults *int
		pageToken  *string
	)
	fe := domain.FieldErrors{}
	if err := runtime.BindQueryParameter("form", true, false, "max_results", query, &maxResults); err != nil {
		fe.Add("max_results", fieldtype.MsgInvalidInteger)
	}
	if err := runtime.BindQueryParameter("form", true, false, "page_token", query, &pageToken); err != nil {
		fe.Add("page_token", fieldtype.MsgInvalidString)
	}
	if err := fe.Err(); err != nil {
		return domain.PageRequest{}, err
	}

	p := domain.PageRequest{}
	if maxResults != nil {
		p.MaxResults = *maxResults
	}
	if pageToken != nil {
		p.PageToken = *pageToken
	}
	return p, nil
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
