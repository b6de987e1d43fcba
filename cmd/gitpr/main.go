package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gitpr/gitpr/pkg/display"
	"github.com/gitpr/gitpr/pkg/log"
)

var (
	flagRepo         string
	flagReviewer     string
	flagUpdateBranch string
	flagQuiet        bool
	flagVerbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "gitpr",
	Short: "gitpr automates the GitHub pull request lifecycle from the command line.",
	Long: `gitpr automates the GitHub pull request lifecycle: listing, fetching,
updating, merging, closing, and submitting pull requests without leaving
the terminal.

Running gitpr with no subcommand lists the open pull requests of the
current repository.

The target repository is resolved from --repo, the github.repo git
config key, or the origin remote, in that order. API calls authenticate
with the GITHUB_TOKEN environment variable or the github.token git
config key.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetVerbose(flagVerbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		return app.engine.List(cmd.Context())
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List open pull requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		return app.engine.List(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagRepo, "repo", "r", "", "Target repository as owner/name")
	rootCmd.PersistentFlags().StringVarP(&flagReviewer, "reviewer", "u", "", "Reviewer repository (owner/name) or owner for submit")
	rootCmd.PersistentFlags().StringVarP(&flagUpdateBranch, "update-branch", "b", "", "Branch updates come from and listings filter by")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress output and skip opening a browser")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		display.NewTo(os.Stderr, !flagQuiet).Errorf("%v", err)
		os.Exit(1)
	}
}
