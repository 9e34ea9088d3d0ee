package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const envFileFlag = "env-file"

// options are the flag values a command runs with
type options struct {
	EnvFile string
	Port    string
}

type runFunc func(cmd *cobra.Command, opts options) error

func newRootCommand(serve, migrate runFunc) *cobra.Command {
	flags := newServeFlags()
	rootCmd := &cobra.Command{
		Use:   "server [serve|migrate]",
		Short: "FarmFeed API server",
		Long: `FarmFeed serves the post feed, likes and views, and runs posts through content moderation.

Default behavior (no subcommand): serve the API

Available subcommands:
  serve    - Migrate the schema and serve the API
  migrate  - Apply the PostgreSQL schema and exit`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, serveOptions(flags))
		},
	}
	registerFlags(rootCmd, flags)

	rootCmd.AddCommand(newServeCommand(serve))
	rootCmd.AddCommand(newMigrateCommand(migrate))
	return rootCmd
}

func envFiles(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}

func main() {
	if err := newRootCommand(runServe, runMigrate).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
