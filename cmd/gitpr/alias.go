package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitpr/gitpr/pkg/config"
	"github.com/gitpr/gitpr/pkg/log"
)

var aliasCmd = &cobra.Command{
	Use:   "alias <name> <login>",
	Short: "Map a name to a GitHub login for notifications",
	Long: `Record an alias so @name mentions in pull request bodies resolve to
the given GitHub login when sending notification mails.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		path := app.aliasPath()
		aliases, err := config.LoadAliases(path)
		if err != nil {
			return err
		}

		aliases[args[0]] = args[1]
		if err := config.SaveAliases(path, aliases); err != nil {
			return err
		}

		app.engine.Out.Successf("Alias %s -> %s saved", args[0], args[1])
		return nil
	},
}

var showAliasCmd = &cobra.Command{
	Use:   "show-alias [name]",
	Short: "Show user aliases",
	Long: `Show the recorded user aliases. With an argument only the matching
entry is shown; the argument may be either side of the mapping, an alias
name or a GitHub login.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		aliases, err := config.LoadAliases(app.aliasPath())
		if err != nil {
			return err
		}

		if len(args) == 1 {
			alias, login, ok := config.FindAlias(aliases, args[0])
			if !ok {
				return fmt.Errorf("no alias or login %q recorded", args[0])
			}
			fmt.Printf("%s -> %s\n", alias, login)
			return nil
		}

		if len(aliases) == 0 {
			app.engine.Out.Println("No aliases recorded")
			return nil
		}
		for _, name := range config.AliasNames(aliases) {
			fmt.Printf("%s -> %s\n", name, aliases[name])
		}
		return nil
	},
}

var updateUsersCmd = &cobra.Command{
	Use:   "update-users",
	Short: "Rebuild user aliases from the repository's forks",
	Long: `Rebuild the alias file from the forks of the target repository: each
fork owner with a public email is recorded under the local part of that
address, so @name mentions match the owners' usual handles.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := newApp(ctx)
		if err != nil {
			return err
		}

		app.engine.Out.Statusf("Loading forks of %s", app.engine.Repo)

		forks, err := app.client.Forks(ctx, app.engine.Repo)
		if err != nil {
			return err
		}

		path := app.aliasPath()
		aliases, err := config.LoadAliases(path)
		if err != nil {
			return err
		}

		for _, fork := range forks {
			user, err := app.client.User(ctx, fork.Owner)
			if err != nil {
				log.Warn("could not load profile", "login", fork.Owner, "error", err)
				continue
			}
			if user.Email == "" {
				continue
			}

			name, _, _ := strings.Cut(user.Email, "@")
			aliases[name] = user.Login
		}

		if err := config.SaveAliases(path, aliases); err != nil {
			return err
		}

		app.engine.Out.Successf("Recorded %d aliases", len(aliases))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aliasCmd)
	rootCmd.AddCommand(showAliasCmd)
	rootCmd.AddCommand(updateUsersCmd)
}
