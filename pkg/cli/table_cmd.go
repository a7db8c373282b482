package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newTableCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Create, inspect and alter tables",
	}

	cmd.AddCommand(newTableListCmd(client))
	cmd.AddCommand(newTableGetCmd(client))
	cmd.AddCommand(newTableCreateCmd(client))
	cmd.AddCommand(newTableAlterCmd(client))

	return cmd
}

// parseTableID parses a positional table id.
func parseTableID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid table id %q: must be an integer", arg)
	}
	return id, nil
}

// parseFields parses repeated --field name:KIND values.
func parseFields(specs []string) ([]Field, error) {
	fields := make([]Field, 0, len(specs))
	for _, s := range specs {
		i := strings.LastIndex(s, ":")
		if i <= 0 || i == len(s)-1 {
			return nil, fmt.Errorf("invalid --field %q: expected name:KIND", s)
		}
		fields = append(fields, Field{Name: s[:i], Type: s[i+1:]})
	}
	return fields, nil
}

func printFields(w io.Writer, fields []Field) {
	rows := make([][]string, len(fields))
	for i, f := range fields {
		rows[i] = []string{f.Name, f.Type}
	}
	PrintTable(w, []string{"field_name", "field_type"}, rows)
}

func newTableListCmd(client *Client) *cobra.Command {
	var (
		maxResults int
		pageToken  string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var page *TablePage
			if all {
				tables, err := client.ListAllTables(cmd.Context())
				if err != nil {
					return err
				}
				page = &TablePage{Tables: tables}
			} else {
				var err error
				if page, err = client.ListTables(cmd.Context(), maxResults, pageToken); err != nil {
					return err
				}
			}

			return render(cmd, page, func(w io.Writer) {
				rows := make([][]string, len(page.Tables))
				for i, t := range page.Tables {
					rows[i] = []string{strconv.FormatInt(t.ID, 10), t.Name}
				}
				PrintTable(w, []string{"table_id", "table_name"}, rows)
				if page.NextPageToken != "" {
					_, _ = fmt.Fprintf(w, "\nMore results: --page-token %s\n", page.NextPageToken)
				}
			})
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Page size (server default when 0)")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Token from a previous page")
	cmd.Flags().BoolVar(&all, "all", false, "Follow page tokens and list every table")
	cmd.MarkFlagsMutuallyExclusive("all", "page-token")

	return cmd
}

func newTableGetCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a table's name and fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTableID(args[0])
			if err != nil {
				return err
			}
			t, err := client.GetTable(cmd.Context(), id)
			if err != nil {
				return err
			}
			return render(cmd, t, func(w io.Writer) {
				PrintDetail(w, map[string]any{"table_id": t.ID, "table_name": t.Name})
				_, _ = fmt.Fprintln(w)
				printFields(w, t.Fields)
			})
		},
	}
}

func newTableCreateCmd(client *Client) *cobra.Command {
	var specs []string

	cmd := &cobra.Command{
		Use:     "create <name>",
		Short:   "Create a table",
		Example: "  dyntable table create people --field name:STRING --field age:NUMBER",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(specs)
			if err != nil {
				return err
			}
			id, err := client.CreateTable(cmd.Context(), args[0], fields)
			if err != nil {
				return err
			}
			return render(cmd, map[string]int64{"table_id": id}, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "Created table %q with id %d\n", args[0], id)
			})
		},
	}

	cmd.Flags().StringArrayVar(&specs, "field", nil, "Field as name:KIND (STRING, NUMBER or BOOLEAN); repeatable")

	return cmd
}

func newTableAlterCmd(client *Client) *cobra.Command {
	var specs []string

	cmd := &cobra.Command{
		Use:   "alter <id>",
		Short: "Replace a table's field list",
		Long: "Replaces the table's fields with the given list. Fields left out are dropped\n" +
			"along with their data. Columns that already exist are left as they are.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTableID(args[0])
			if err != nil {
				return err
			}
			fields, err := parseFields(specs)
			if err != nil {
				return err
			}
			t, err := client.AlterTable(cmd.Context(), id, fields)
			if err != nil {
				return err
			}
			return render(cmd, t, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "Table %q now has %d field(s)\n\n", t.Name, len(t.Fields))
				printFields(w, t.Fields)
			})
		},
	}

	cmd.Flags().StringArrayVar(&specs, "field", nil, "Field as name:KIND; repeatable")

	return cmd
}
