package fieldtype

import (
	"fmt"

	"dyntable/internal/domain"
)

// RowCodec validates and converts whole rows for one table's field list.
// It is built per request from the introspected fields.
type RowCodec struct {
	fields []domain.LogicalField
	types  []Type
	index  map[string]int
}

// NewRowCodec builds a codec for fields, in order.
func NewRowCodec(fields []domain.LogicalField) (*RowCodec, error) {
	c := &RowCodec{
		fields: fields,
		types:  make([]Type, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		t, err := Lookup(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		c.types[i] = t
		c.index[f.Name] = i
	}
	return c, nil
}

// Fields returns the field list the codec was built from.
func (c *RowCodec) Fields() []domain.LogicalField { return c.fields }

// Columns returns the column names in field order.
func (c *RowCodec) Columns() []string {
	cols := make([]string, len(c.fields))
	for i, f := range c.fields {
		cols[i] = f.Name
	}
	return cols
}

// Decode validates a request row and returns one store value per column, in
// Columns order. Unknown keys, missing required keys and malformed values are
// reported together as a *domain.ValidationError.
func (c *RowCodec) Decode(input map[string]any) ([]any, error) {
	fe := domain.FieldErrors{}
	for key := range input {
		if _, ok := c.index[key]; !ok {
			fe.Add(key, MsgUnknownField)
		}
	}

	values := make([]any, len(c.fields))
	for i, f := range c.fields {
		t := c.types[i]
		raw, ok := input[f.Name]
		if !ok {
			if t.Required {
				fe.Add(f.Name, MsgRequired)
			}
			values[i] = t.Default
			continue
		}
		v, msg := t.Decode(raw)
		if msg != "" {
			fe.Add(f.Name, msg)
			continue
		}
		values[i] = v
	}

	if err := fe.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// Encode turns a scanned record (primary key first, then Columns) into a Row.
func (c *RowCodec) Encode(record []any) (domain.Row, error) {
	if len(record) != len(c.fields)+1 {
		return nil, fmt.Errorf("record has %d values, want %d", len(record), len(c.fields)+1)
	}
	id, err := EncodeKey(record[0])
	if err != nil {
		return nil, err
	}
	row := domain.Row{domain.PrimaryKeyColumn: id}
	for i, f := range c.fields {
		v, err := c.types[i].Encode(record[i+1])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		row[f.Name] = v
	}
	return row, nil
}
