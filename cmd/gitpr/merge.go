package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [comment...]",
	Short: "Merge the current pull request branch into the update branch",
	Long: `Merge the current pull request branch into the update branch and
delete the branch.

With merge-auto-close set (the default) the pull request is also closed
on GitHub, posting the comment along with the commit range recorded by
the last update.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		return app.engine.Merge(cmd.Context(), strings.Join(args, " "))
	},
}

var closeCmd = &cobra.Command{
	Use:   "close [comment...]",
	Short: "Close the current pull request without merging",
	Long: `Close the pull request belonging to the current branch and delete
the branch. The comment defaults to the close-default-comment option.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		return app.engine.Close(cmd.Context(), strings.Join(args, " "))
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull remote changes of the pull request into the current branch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		return app.engine.Pull(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(pullCmd)
}
