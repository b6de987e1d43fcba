// Package config provides layered configuration for gitpr.
// Defaults are overridden by a .gitpr/config.yaml file found in the
// repository or its parents, then by git-pull-request.* git config keys,
// then by CLI flags. Git config keys prefixed with the working tree's
// top-level path override the unprefixed keys, which lets one set of
// global options carry per-checkout exceptions.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name for gitpr configuration
	ConfigDir = ".gitpr"
	// ConfigFile is the name of the configuration file
	ConfigFile = "config.yaml"
	// ConfigPath is the full path to the config file relative to the repo root
	ConfigPath = ConfigDir + "/" + ConfigFile

	// GitConfigSection is the git config section holding gitpr options
	GitConfigSection = "git-pull-request"

	// DefaultAliasFile is the user alias file used when none is configured
	DefaultAliasFile = "git-pull-request.users"
)

// Config holds all gitpr options.
type Config struct {
	// Repo is the target repository as owner/name. Empty means resolve
	// from the origin remote.
	Repo string `yaml:"repo,omitempty"`

	// Reviewer is the default reviewer repository (owner/name) or remote
	// name for submit.
	Reviewer string `yaml:"reviewer,omitempty"`

	// GitHubUser and GitHubToken authenticate API calls. Normally sourced
	// from the github.user and github.token git config keys.
	GitHubUser  string `yaml:"github-user,omitempty"`
	GitHubToken string `yaml:"-"`

	// LocalBranchPrefix is the prefix for local pull request branches.
	LocalBranchPrefix string `yaml:"local-branch-prefix,omitempty"`

	// UpdateBranch is the branch updates are merged from and pull requests
	// are filtered by.
	UpdateBranch string `yaml:"update-branch,omitempty"`

	// UpdateMethod is how a pull request branch absorbs the update branch:
	// "merge" or "rebase".
	UpdateMethod string `yaml:"update-method,omitempty"`

	// FilterByUpdateBranch restricts listings to pull requests targeting
	// the update branch.
	FilterByUpdateBranch bool `yaml:"filter-by-update-branch"`

	// FetchAutoCheckout checks out the new branch after a fetch.
	FetchAutoCheckout bool `yaml:"fetch-auto-checkout"`

	// FetchAutoUpdate updates a fetched branch immediately. Implies
	// checking it out.
	FetchAutoUpdate bool `yaml:"fetch-auto-update"`

	// MergeAutoClose closes pull requests after merging them.
	MergeAutoClose bool `yaml:"merge-auto-close"`

	// CloseDefaultComment is posted when closing without an explicit
	// comment.
	CloseDefaultComment string `yaml:"close-default-comment,omitempty"`

	// AllowEmptyBody permits submitting a pull request without a body.
	AllowEmptyBody bool `yaml:"allow-empty-body"`

	// SubmitOpenGitHub opens newly submitted pull requests in a browser.
	SubmitOpenGitHub bool `yaml:"submit-open-github"`

	// TitleTagPrefix and TitleTagSuffix delimit tags inserted into pull
	// request titles.
	TitleTagPrefix string `yaml:"title-tag-prefix,omitempty"`
	TitleTagSuffix string `yaml:"title-tag-suffix,omitempty"`

	// EnableColor toggles colored terminal output.
	EnableColor bool `yaml:"enable-color"`

	// WorkDir is a separate checkout used for updates so the primary
	// checkout is not churned. It is hard reset on every update.
	WorkDir string `yaml:"work-dir,omitempty"`

	// WorkDirs maps update branch names to per-branch work directories
	// (work-dir-{branch} git config keys).
	WorkDirs map[string]string `yaml:"work-dirs,omitempty"`

	// UsersAliasFile maps alias names to GitHub logins.
	UsersAliasFile string `yaml:"users-alias-file,omitempty"`

	// AutoSendNotificationTo is a comma-separated list of users notified
	// on every submit.
	AutoSendNotificationTo string `yaml:"auto-send-notification-to,omitempty"`

	// Mail configures notification email delivery.
	Mail MailConfig `yaml:"mail,omitempty"`
}

// MailConfig holds SMTP settings for notification mails.
type MailConfig struct {
	Server string `yaml:"server,omitempty"`
	Port   int    `yaml:"port,omitempty"`
	UseSSL bool   `yaml:"use-ssl"`
	UseTLS bool   `yaml:"use-tls"`

	// Credentials is "user;password". Stored base64-encoded in the
	// email-credentials git config key.
	Credentials string `yaml:"-"`
}

// Default returns the built-in option values.
func Default() *Config {
	return &Config{
		LocalBranchPrefix:    "pull-request",
		UpdateBranch:         "master",
		UpdateMethod:         "merge",
		FilterByUpdateBranch: true,
		MergeAutoClose:       true,
		AllowEmptyBody:       true,
		SubmitOpenGitHub:     true,
		TitleTagPrefix:       "[",
		TitleTagSuffix:       "]",
		EnableColor:          true,
		UsersAliasFile:       DefaultAliasFile,
		Mail: MailConfig{
			Server: "smtp.gmail.com",
			Port:   587,
			UseTLS: true,
		},
	}
}

// Load returns the defaults overlaid with the .gitpr/config.yaml found in
// dir or its parents. A missing file is not an error.
func Load(dir string) (*Config, error) {
	cfg := Default()

	configPath, err := findConfigPath(dir)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// findConfigPath searches for .gitpr/config.yaml in dir and its parent
// directories. It returns the full path, or empty string if not found.
func findConfigPath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	for {
		configPath := filepath.Join(absDir, ConfigPath)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parentDir := filepath.Dir(absDir)
		if parentDir == absDir {
			return "", nil
		}
		absDir = parentDir
	}
}

var gitConfigRe = regexp.MustCompile(`(?m)^git-pull-request\.([^=]+)=([^\n]*)$`)
var githubConfigRe = regexp.MustCompile(`(?m)^github\.(user|token|repo|reviewer)=([^\n]*)$`)

// ApplyGitConfig overlays git-pull-request.* and github.* keys from git
// config -l output onto cfg. Keys of the form
// git-pull-request.{topLevel}.{option} are applied after the plain keys so
// a checkout can override the global options.
func ApplyGitConfig(cfg *Config, configList, topLevel string) {
	for _, m := range githubConfigRe.FindAllStringSubmatch(configList, -1) {
		switch m[1] {
		case "user":
			cfg.GitHubUser = m[2]
		case "token":
			cfg.GitHubToken = m[2]
		case "repo":
			cfg.Repo = m[2]
		case "reviewer":
			cfg.Reviewer = m[2]
		}
	}

	pathPrefix := topLevel + "."

	var overrides [][2]string
	for _, m := range gitConfigRe.FindAllStringSubmatch(configList, -1) {
		key, value := m[1], m[2]
		if strings.HasPrefix(key, pathPrefix) {
			overrides = append(overrides, [2]string{strings.TrimPrefix(key, pathPrefix), value})
			continue
		}
		setOption(cfg, key, value)
	}

	for _, kv := range overrides {
		setOption(cfg, kv[0], kv[1])
	}
}

// parseBool interprets the value forms git users write. ok is false when
// the value is not a recognized boolean.
func parseBool(value string) (b, ok bool) {
	switch strings.ToLower(value) {
	case "t", "true", "yes":
		return true, true
	case "f", "false", "no":
		return false, true
	}
	return false, false
}

// isUnset reports whether the value means "no value".
func isUnset(value string) bool {
	switch strings.ToLower(value) {
	case "", "none", "null", "nil":
		return true
	}
	return false
}

func setOption(cfg *Config, key, value string) {
	setBool := func(dst *bool) {
		if b, ok := parseBool(value); ok {
			*dst = b
		}
	}
	setString := func(dst *string) {
		if isUnset(value) {
			*dst = ""
			return
		}
		*dst = value
	}

	switch key {
	case "local-branch-prefix":
		setString(&cfg.LocalBranchPrefix)
	case "update-branch":
		setString(&cfg.UpdateBranch)
	case "update-method":
		setString(&cfg.UpdateMethod)
	case "filter-by-update-branch":
		setBool(&cfg.FilterByUpdateBranch)
	case "fetch-auto-checkout":
		setBool(&cfg.FetchAutoCheckout)
	case "fetch-auto-update":
		setBool(&cfg.FetchAutoUpdate)
	case "merge-auto-close":
		setBool(&cfg.MergeAutoClose)
	case "close-default-comment":
		setString(&cfg.CloseDefaultComment)
	case "allow-empty-body":
		setBool(&cfg.AllowEmptyBody)
	case "submit-open-github":
		setBool(&cfg.SubmitOpenGitHub)
	case "title-tag-prefix":
		setString(&cfg.TitleTagPrefix)
	case "title-tag-suffix":
		setString(&cfg.TitleTagSuffix)
	case "enable-color":
		setBool(&cfg.EnableColor)
	case "work-dir":
		setString(&cfg.WorkDir)
	case "users-alias-file":
		setString(&cfg.UsersAliasFile)
	case "auto-send-notification-to":
		setString(&cfg.AutoSendNotificationTo)
	case "mail-server":
		setString(&cfg.Mail.Server)
	case "mail-port":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.Mail.Port = n
		}
	case "mail-use-ssl":
		setBool(&cfg.Mail.UseSSL)
	case "mail-use-tls":
		setBool(&cfg.Mail.UseTLS)
	case "email-credentials":
		setString(&cfg.Mail.Credentials)
	default:
		// work-dir-{branch} keys carry the branch name in the key itself.
		if branch, ok := strings.CutPrefix(key, "work-dir-"); ok {
			if cfg.WorkDirs == nil {
				cfg.WorkDirs = make(map[string]string)
			}
			cfg.WorkDirs[branch] = value
		}
	}
}

// ResolveWorkDir returns the work directory for branch: the per-branch
// override when it exists on disk, otherwise the global work dir when it
// exists. A configured directory missing from disk is ignored, so a
// per-branch override can fall back to the global directory and updates
// without any usable work directory run in the primary checkout.
func (c *Config) ResolveWorkDir(branch string) string {
	if branch != "" {
		if dir := c.WorkDirs[branch]; dirExists(dir) {
			return dir
		}
	}
	if dirExists(c.WorkDir) {
		return c.WorkDir
	}
	return ""
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
