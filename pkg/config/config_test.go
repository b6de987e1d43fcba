package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// Should return the defaults
	if cfg.LocalBranchPrefix != "pull-request" {
		t.Errorf("LocalBranchPrefix = %q, want pull-request", cfg.LocalBranchPrefix)
	}
	if cfg.UpdateBranch != "master" {
		t.Errorf("UpdateBranch = %q, want master", cfg.UpdateBranch)
	}
	if cfg.UpdateMethod != "merge" {
		t.Errorf("UpdateMethod = %q, want merge", cfg.UpdateMethod)
	}
	if !cfg.FilterByUpdateBranch {
		t.Error("FilterByUpdateBranch should default to true")
	}
	if !cfg.MergeAutoClose {
		t.Error("MergeAutoClose should default to true")
	}
	if cfg.TitleTagPrefix != "[" || cfg.TitleTagSuffix != "]" {
		t.Errorf("title tag delimiters = %q %q, want [ ]", cfg.TitleTagPrefix, cfg.TitleTagSuffix)
	}
	if cfg.UsersAliasFile != DefaultAliasFile {
		t.Errorf("UsersAliasFile = %q, want %q", cfg.UsersAliasFile, DefaultAliasFile)
	}
	if cfg.Mail.Server != "smtp.gmail.com" || cfg.Mail.Port != 587 || !cfg.Mail.UseTLS {
		t.Errorf("unexpected mail defaults: %+v", cfg.Mail)
	}
}

func TestLoad_ValidConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	gitprDir := filepath.Join(tmpDir, ".gitpr")
	if err := os.MkdirAll(gitprDir, 0755); err != nil {
		t.Fatal(err)
	}

	configContent := `
repo: "liferay/liferay-portal"
update-branch: "7.4.x"
update-method: "rebase"
filter-by-update-branch: false
work-dir: "/tmp/liferay-work"
`
	if err := os.WriteFile(filepath.Join(gitprDir, ConfigFile), []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Repo != "liferay/liferay-portal" {
		t.Errorf("Repo = %q", cfg.Repo)
	}
	if cfg.UpdateBranch != "7.4.x" {
		t.Errorf("UpdateBranch = %q, want 7.4.x", cfg.UpdateBranch)
	}
	if cfg.UpdateMethod != "rebase" {
		t.Errorf("UpdateMethod = %q, want rebase", cfg.UpdateMethod)
	}
	if cfg.FilterByUpdateBranch {
		t.Error("FilterByUpdateBranch should be overridden to false")
	}
	if cfg.WorkDir != "/tmp/liferay-work" {
		t.Errorf("WorkDir = %q", cfg.WorkDir)
	}

	// Keys absent from the file keep their defaults.
	if cfg.LocalBranchPrefix != "pull-request" {
		t.Errorf("LocalBranchPrefix = %q, want default", cfg.LocalBranchPrefix)
	}
	if !cfg.MergeAutoClose {
		t.Error("MergeAutoClose should keep its default")
	}
}

func TestLoad_SearchesParentDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	gitprDir := filepath.Join(tmpDir, ".gitpr")
	if err := os.MkdirAll(gitprDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(gitprDir, ConfigFile), []byte("update-branch: main\n"), 0644); err != nil {
		t.Fatal(err)
	}

	nested := filepath.Join(tmpDir, "modules", "apps")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nested)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.UpdateBranch != "main" {
		t.Errorf("UpdateBranch = %q, want main from parent config", cfg.UpdateBranch)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	gitprDir := filepath.Join(tmpDir, ".gitpr")
	if err := os.MkdirAll(gitprDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(gitprDir, ConfigFile), []byte("update-branch: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatal("Load() should fail on malformed yaml")
	}
}

func TestApplyGitConfig(t *testing.T) {
	cfg := Default()

	configList := `user.name=Test User
github.user=octocat
github.token=sekrit
github.repo=brianchandotcom/liferay-portal
github.reviewer=liferay/liferay-portal
git-pull-request.update-branch=7.4.x
git-pull-request.merge-auto-close=no
git-pull-request.fetch-auto-checkout=t
git-pull-request.close-default-comment=Thanks!
git-pull-request.mail-port=465
git-pull-request.mail-use-ssl=true
git-pull-request.work-dir=/opt/work
git-pull-request.work-dir-7.4.x=/opt/work-74
`

	ApplyGitConfig(cfg, configList, "/home/dev/portal")

	if cfg.GitHubUser != "octocat" || cfg.GitHubToken != "sekrit" {
		t.Errorf("github identity = %q/%q", cfg.GitHubUser, cfg.GitHubToken)
	}
	if cfg.Repo != "brianchandotcom/liferay-portal" {
		t.Errorf("Repo = %q", cfg.Repo)
	}
	if cfg.Reviewer != "liferay/liferay-portal" {
		t.Errorf("Reviewer = %q", cfg.Reviewer)
	}
	if cfg.UpdateBranch != "7.4.x" {
		t.Errorf("UpdateBranch = %q", cfg.UpdateBranch)
	}
	if cfg.MergeAutoClose {
		t.Error("merge-auto-close=no should disable auto close")
	}
	if !cfg.FetchAutoCheckout {
		t.Error("fetch-auto-checkout=t should enable auto checkout")
	}
	if cfg.CloseDefaultComment != "Thanks!" {
		t.Errorf("CloseDefaultComment = %q", cfg.CloseDefaultComment)
	}
	if cfg.Mail.Port != 465 || !cfg.Mail.UseSSL {
		t.Errorf("mail settings = %+v", cfg.Mail)
	}
	if cfg.WorkDirs["7.4.x"] != "/opt/work-74" {
		t.Errorf("WorkDirs = %v", cfg.WorkDirs)
	}
}

func TestApplyGitConfig_PathScopedOverrides(t *testing.T) {
	cfg := Default()

	configList := `git-pull-request.update-branch=master
git-pull-request./home/dev/portal.update-branch=7.4.x
git-pull-request./home/dev/other.update-branch=6.2.x
`

	ApplyGitConfig(cfg, configList, "/home/dev/portal")

	if cfg.UpdateBranch != "7.4.x" {
		t.Errorf("UpdateBranch = %q, want the checkout-scoped override", cfg.UpdateBranch)
	}

	// A different checkout gets its own override.
	cfg = Default()
	ApplyGitConfig(cfg, configList, "/home/dev/other")
	if cfg.UpdateBranch != "6.2.x" {
		t.Errorf("UpdateBranch = %q, want 6.2.x", cfg.UpdateBranch)
	}

	// An unrelated checkout only sees the plain key.
	cfg = Default()
	ApplyGitConfig(cfg, configList, "/home/dev/elsewhere")
	if cfg.UpdateBranch != "master" {
		t.Errorf("UpdateBranch = %q, want master", cfg.UpdateBranch)
	}
}

func TestApplyGitConfig_UnsetValues(t *testing.T) {
	cfg := Default()
	cfg.CloseDefaultComment = "bye"

	ApplyGitConfig(cfg, "git-pull-request.close-default-comment=none\n", "/repo")

	if cfg.CloseDefaultComment != "" {
		t.Errorf("CloseDefaultComment = %q, want cleared", cfg.CloseDefaultComment)
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		value  string
		want   bool
		wantOK bool
	}{
		{"t", true, true},
		{"true", true, true},
		{"yes", true, true},
		{"TRUE", true, true},
		{"f", false, true},
		{"false", false, true},
		{"no", false, true},
		{"1", false, false},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		b, ok := parseBool(tt.value)
		if b != tt.want || ok != tt.wantOK {
			t.Errorf("parseBool(%q) = %v, %v, want %v, %v", tt.value, b, ok, tt.want, tt.wantOK)
		}
	}
}

func TestResolveWorkDir(t *testing.T) {
	global := t.TempDir()
	perBranch := t.TempDir()

	cfg := Default()
	cfg.WorkDir = global
	cfg.WorkDirs = map[string]string{"7.4.x": perBranch}

	if got := cfg.ResolveWorkDir("7.4.x"); got != perBranch {
		t.Errorf("ResolveWorkDir(7.4.x) = %q", got)
	}
	if got := cfg.ResolveWorkDir("master"); got != global {
		t.Errorf("ResolveWorkDir(master) = %q", got)
	}
	if got := cfg.ResolveWorkDir(""); got != global {
		t.Errorf("ResolveWorkDir(\"\") = %q", got)
	}

	cfg.WorkDir = ""
	if got := cfg.ResolveWorkDir("master"); got != "" {
		t.Errorf("ResolveWorkDir with no config = %q, want empty", got)
	}
}

func TestResolveWorkDirMissingOnDisk(t *testing.T) {
	global := t.TempDir()

	cfg := Default()
	cfg.WorkDir = global
	cfg.WorkDirs = map[string]string{"7.4.x": filepath.Join(global, "gone")}

	// A per-branch directory missing from disk falls back to the global one.
	if got := cfg.ResolveWorkDir("7.4.x"); got != global {
		t.Errorf("ResolveWorkDir with missing override = %q, want %q", got, global)
	}

	// A missing global directory disables redirection entirely.
	cfg.WorkDir = filepath.Join(global, "also-gone")
	if got := cfg.ResolveWorkDir("master"); got != "" {
		t.Errorf("ResolveWorkDir with missing work dir = %q, want empty", got)
	}

	// A file is not a usable work directory.
	file := filepath.Join(global, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.WorkDir = file
	if got := cfg.ResolveWorkDir("master"); got != "" {
		t.Errorf("ResolveWorkDir pointing at a file = %q, want empty", got)
	}
}
