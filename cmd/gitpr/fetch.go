package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var fetchUpdate bool

var fetchCmd = &cobra.Command{
	Use:   "fetch <number>",
	Short: "Fetch a pull request into a local branch",
	Long: `Fetch a pull request's head into a local branch named after the
request number.

With --update the branch is immediately updated from the update branch.
The fetch-auto-checkout option controls whether the branch is checked
out after fetching.

Examples:
  gitpr fetch 123
  gitpr fetch 123 --update`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid pull request number %q", args[0])
		}

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		return app.engine.Fetch(cmd.Context(), number, fetchUpdate)
	},
}

var fetchAllCmd = &cobra.Command{
	Use:   "fetch-all",
	Short: "Fetch every open pull request into local branches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		return app.engine.FetchAll(cmd.Context())
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchUpdate, "update", false, "Update the fetched branch from the update branch")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(fetchAllCmd)
}
