package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return render(cmd, map[string]string{
				"version": version,
				"commit":  commit,
			}, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "dyntable version %s (commit: %s)\n", version, commit)
			})
		},
	}
}

func newHealthCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is reachable and its store answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := client.Health(cmd.Context()); err != nil {
				return err
			}
			return render(cmd, map[string]string{"status": "ok", "host": client.BaseURL}, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "%s is healthy\n", client.BaseURL)
			})
		},
	}
}
