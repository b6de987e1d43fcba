package main

import (
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [number|branch]",
	Short: "Update a pull request branch from the update branch",
	Long: `Update a pull request branch by merging or rebasing the update branch
into it, per the update-method option.

Without an argument the current branch is updated. A number resolves to
the pull request's local branch; anything else is taken as a branch
name.

When a work directory is configured the update runs there, so conflicts
never disturb the primary checkout. On conflicts, resolve them, 'git
add' the files, and run 'gitpr continue-update'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		target := ""
		if len(args) > 0 {
			target = args[0]
		}
		return app.engine.Update(cmd.Context(), target)
	},
}

var continueUpdateCmd = &cobra.Command{
	Use:     "continue-update",
	Aliases: []string{"cu"},
	Short:   "Finish an update that stopped on conflicts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		return app.engine.ContinueUpdate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(continueUpdateCmd)
}
