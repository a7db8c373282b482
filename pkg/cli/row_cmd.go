package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

const primaryKeyColumn = "id"

func newRowCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "row",
		Short: "Insert and list rows",
	}

	cmd.AddCommand(newRowListCmd(client))
	cmd.AddCommand(newRowInsertCmd(client))

	return cmd
}

// parseValue decodes a --set value as JSON when it is valid JSON and keeps it
// as a plain string otherwise, so name=Ann and age=42 both work.
func parseValue(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}

// buildRow merges --data with --set pairs. --set wins on duplicate keys.
func buildRow(data string, sets []string) (map[string]any, error) {
	values := map[string]any{}
	if data != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(data)))
		dec.UseNumber()
		if err := dec.Decode(&values); err != nil {
			return nil, fmt.Errorf("invalid --data: %w", err)
		}
		if values == nil {
			return nil, fmt.Errorf("invalid --data: expected a JSON object")
		}
	}
	for _, s := range sets {
		key, raw, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", s)
		}
		values[key] = parseValue(raw)
	}
	return values, nil
}

// rowColumns orders columns as id, then the table's fields, then any other keys.
func rowColumns(fields []Field, rows []map[string]any) []string {
	cols := []string{primaryKeyColumn}
	seen := map[string]bool{primaryKeyColumn: true}
	for _, f := range fields {
		if !seen[f.Name] {
			seen[f.Name] = true
			cols = append(cols, f.Name)
		}
	}
	var extra []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

func newRowListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list <table-id>",
		Short: "List every row of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTableID(args[0])
			if err != nil {
				return err
			}
			rows, err := client.ListRows(cmd.Context(), id)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) != OutputTable {
				return render(cmd, rows, nil)
			}

			t, err := client.GetTable(cmd.Context(), id)
			if err != nil {
				return err
			}
			cols := rowColumns(t.Fields, rows)
			cells := make([][]string, len(rows))
			for i, row := range rows {
				cells[i] = make([]string, len(cols))
				for j, c := range cols {
					cells[i][j] = formatValue(row[c])
				}
			}
			PrintTable(cmd.OutOrStdout(), cols, cells)
			return nil
		},
	}
}

func newRowInsertCmd(client *Client) *cobra.Command {
	var (
		sets []string
		data string
	)

	cmd := &cobra.Command{
		Use:   "insert <table-id>",
		Short: "Insert one row",
		Example: "  dyntable row insert 1 --set name=Ann --set age=42 --set active=true\n" +
			"  dyntable row insert 1 --data '{\"name\":\"Ann\",\"age\":42}'",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTableID(args[0])
			if err != nil {
				return err
			}
			values, err := buildRow(data, sets)
			if err != nil {
				return err
			}
			row, err := client.InsertRow(cmd.Context(), id, values)
			if err != nil {
				return err
			}
			return render(cmd, row, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "Inserted row %d into %q (table %d)\n", row.RowID, row.TableName, row.TableID)
			})
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Column value as key=value; JSON values are decoded, anything else is a string")
	cmd.Flags().StringVar(&data, "data", "", "Row as a JSON object")

	return cmd
}
