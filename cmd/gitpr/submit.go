package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/gitpr/gitpr/pkg/lifecycle"
	"github.com/gitpr/gitpr/pkg/log"
)

var (
	submitTitle string
	submitBody  string
	submitTags  []string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the current branch as a pull request",
	Long: `Push the current branch to origin and open a pull request on the
reviewer repository.

The reviewer repository is resolved from --reviewer, the
github.reviewer git config key, or the upstream remote, in that order.
A bare owner (no slash) targets that owner's fork of the origin
repository.

Without --title the title is derived from the issue key embedded in the
branch name. Users mentioned with @login in the body are notified by
mail when email-credentials are configured.

Examples:
  gitpr submit
  gitpr submit -u brianchandotcom -m "Fixes the portlet cache" -t 7.4.x`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		if app.cfg.GitHubUser == "" {
			return fmt.Errorf("github.user is not configured")
		}

		pr, err := app.engine.Submit(cmd.Context(), lifecycle.SubmitOptions{
			Username: app.cfg.GitHubUser,
			Reviewer: flagReviewer,
			Title:    submitTitle,
			Tags:     submitTags,
			Body:     submitBody,
		})
		if err != nil {
			return err
		}

		if app.cfg.SubmitOpenGitHub && !flagQuiet {
			if err := browser.OpenURL(pr.URL); err != nil {
				log.Warn("could not open a browser", "url", pr.URL, "error", err)
			}
		}
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open [number]",
	Short: "Open a pull request's page in the browser",
	Long: `Open the pull request's GitHub page in the default browser. Without
an argument the pull request of the current branch is opened.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number := 0
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid pull request number %q", args[0])
			}
			number = n
		}

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		url, err := app.engine.RequestURL(cmd.Context(), number)
		if err != nil {
			return err
		}
		return browser.OpenURL(url)
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitTitle, "title", "", "Pull request title (default: derived from the branch name)")
	submitCmd.Flags().StringVarP(&submitBody, "body", "m", "", "Pull request description")
	submitCmd.Flags().StringSliceVarP(&submitTags, "tags", "t", nil, "Tags appended to the title")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(openCmd)
}
