package main

import (
	"github.com/spf13/cobra"
)

var infoAll bool

var infoCmd = &cobra.Command{
	Use:   "info <username>",
	Short: "Show open pull request counts across a user's repositories",
	Long: `Show per-repository open pull request counts for a GitHub user, with
a grand total. With --all the individual pull requests are listed too.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		return app.engine.Info(cmd.Context(), args[0], infoAll)
	},
}

func init() {
	infoCmd.Flags().BoolVarP(&infoAll, "all", "a", false, "List the pull requests of every repository")

	rootCmd.AddCommand(infoCmd)
}
