package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitpr/gitpr/pkg/config"
	"github.com/gitpr/gitpr/pkg/display"
	"github.com/gitpr/gitpr/pkg/git"
	gh "github.com/gitpr/gitpr/pkg/github"
	"github.com/gitpr/gitpr/pkg/lifecycle"
	"github.com/gitpr/gitpr/pkg/log"
	"github.com/gitpr/gitpr/pkg/naming"
	"github.com/gitpr/gitpr/pkg/notify"
	"github.com/gitpr/gitpr/pkg/statestore"
	"github.com/gitpr/gitpr/pkg/workdir"
)

// app wires the configuration, git, the GitHub client, and the engine
// together for one invocation.
type app struct {
	cfg      *config.Config
	git      *git.Runner
	client   *gh.Client
	engine   *lifecycle.Engine
	topLevel string
}

// newApp builds the engine for the repository containing the working
// directory. Options come from .gitpr/config.yaml overlaid with git
// config keys, then the command line flags.
func newApp(ctx context.Context) (*app, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	g := git.New()

	topLevel, err := g.TopLevel(ctx, startDir)
	if err != nil {
		return nil, fmt.Errorf("not inside a git repository: %w", err)
	}

	cfg, err := config.Load(topLevel)
	if err != nil {
		return nil, err
	}
	if configList, err := g.ConfigList(ctx, topLevel); err == nil {
		config.ApplyGitConfig(cfg, configList, topLevel)
	}
	if flagUpdateBranch != "" {
		cfg.UpdateBranch = flagUpdateBranch
	}

	repo, err := resolveRepo(ctx, g, cfg, topLevel)
	if err != nil {
		return nil, err
	}

	token := os.Getenv(gh.TokenEnv)
	if token == "" {
		token = cfg.GitHubToken
	}
	client := gh.NewClient(token)

	// The work directory can differ per update branch, so resolve it
	// against the branch checked out right now.
	branch, err := g.SymbolicRef(ctx, topLevel)
	if err != nil {
		log.Debug("could not resolve current branch", "error", err)
	}
	dirs := workdir.NewRedirector(cfg.ResolveWorkDir(branch), g, workdir.OSMetadata{}, statestore.Default(), topLevel)

	out := display.New(cfg.EnableColor)
	if flagQuiet {
		out = display.NewTo(io.Discard, false)
	}

	a := &app{
		cfg:      cfg,
		git:      g,
		client:   client,
		topLevel: topLevel,
	}

	a.engine = &lifecycle.Engine{
		Repo:   repo,
		Config: cfg,
		Git:    g,
		API:    client,
		Store:  statestore.Default(),
		Dirs:   dirs,
		Naming: naming.Resolver{
			Prefix:    cfg.LocalBranchPrefix,
			TagPrefix: cfg.TitleTagPrefix,
			TagSuffix: cfg.TitleTagSuffix,
		},
		Out: out,
	}

	if cfg.Mail.Credentials != "" && cfg.GitHubUser != "" {
		a.engine.Notify = a.sendNotifications
	}

	return a, nil
}

func resolveRepo(ctx context.Context, g *git.Runner, cfg *config.Config, topLevel string) (string, error) {
	if flagRepo != "" {
		return flagRepo, nil
	}
	if cfg.Repo != "" {
		return cfg.Repo, nil
	}

	repo, err := g.RemoteRepoName(ctx, topLevel, "origin")
	if err != nil || repo == "" {
		return "", fmt.Errorf("could not determine the repository: pass --repo, set github.repo, or add an origin remote")
	}
	return repo, nil
}

// aliasPath returns the user alias file, resolving a relative setting
// against the repository's .gitpr directory.
func (a *app) aliasPath() string {
	path := a.cfg.UsersAliasFile
	if path == "" {
		path = config.DefaultAliasFile
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.topLevel, config.ConfigDir, path)
}

// lookupEmail resolves a mentioned name to an email address: alias file
// first, then the GitHub profile.
func (a *app) lookupEmail(ctx context.Context, name string) (string, error) {
	aliases, err := config.LoadAliases(a.aliasPath())
	if err != nil {
		return "", err
	}

	login := config.LookupAlias(aliases, name)
	user, err := a.client.User(ctx, login)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

// sendNotifications mails the submitted pull request to the mentioned
// users.
func (a *app) sendNotifications(ctx context.Context, pr *gh.PullRequest, logins []string) error {
	sender, err := a.client.User(ctx, a.cfg.GitHubUser)
	if err != nil {
		return fmt.Errorf("could not load the sender's profile: %w", err)
	}
	if sender.Email == "" {
		return fmt.Errorf("no public email on the %s profile, notifications not sent", a.cfg.GitHubUser)
	}

	owner, name := splitRequestURL(pr.URL)

	mailer := &notify.Mailer{Config: a.cfg.Mail, LookupEmail: a.lookupEmail}
	sent, err := mailer.Send(ctx, notify.Notification{
		RepoName:     name,
		Title:        pr.Title,
		Body:         pr.Body,
		URL:          pr.URL,
		SenderName:   sender.Name,
		SenderEmail:  sender.Email,
		ReviewerName: owner,
	}, logins)
	if err != nil {
		return err
	}

	for _, addr := range sent {
		a.engine.Out.Statusf("Notification sent to %s", addr)
	}
	return nil
}

// splitRequestURL extracts the owner and repository name from a pull
// request page URL.
func splitRequestURL(url string) (owner, name string) {
	trimmed := strings.TrimPrefix(url, "https://")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 3 {
		return "", ""
	}
	return parts[1], parts[2]
}
