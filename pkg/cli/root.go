// Package cli implements the dyntable command-line client.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == OutputJSON {
			errObj := map[string]any{
				"error": err.Error(),
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["message"] = apiErr.Message
				if len(apiErr.Fields) > 0 {
					errObj["errors"] = apiErr.Fields
				}
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host    string
		token   string
		output  string
		profile string
	)

	client := NewClient(host, token)

	rootCmd := &cobra.Command{
		Use:           "dyntable",
		Short:         "Dynamic table CLI",
		Long:          "Command-line client for the dynamic table HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				// Config file is optional
				cfg = newUserConfig()
			}
			p, err := cfg.ActiveProfile(profile)
			if err != nil {
				return err
			}

			// Apply precedence: flag > env > profile > default
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("DYNTABLE_HOST"); v != "" {
					host = v
				} else if p.Host != "" {
					host = p.Host
				}
			}
			if !cmd.Flags().Changed("token") {
				if v := os.Getenv("DYNTABLE_TOKEN"); v != "" {
					token = v
				} else if p.Token != "" {
					token = p.Token
				}
			}
			if !cmd.Flags().Changed("output") {
				switch {
				case os.Getenv("DYNTABLE_OUTPUT") != "":
					output = os.Getenv("DYNTABLE_OUTPUT")
				case p.Output != "":
					output = p.Output
				case !isTerminal(cmd.OutOrStdout()):
					output = OutputJSON
				default:
					output = OutputTable
				}
			}
			if err := validateOutputFormat(output); err != nil {
				return err
			}

			client.BaseURL = host
			client.Token = token
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token for authentication")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (table, json, yaml); json when stdout is not a terminal")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newTableCmd(client))
	rootCmd.AddCommand(newRowCmd(client))
	rootCmd.AddCommand(newHealthCmd(client))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}
