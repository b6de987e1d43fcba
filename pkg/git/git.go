// Package git wraps the system git command with the primitives the pull
// request lifecycle needs: fetching a remote ref into a local branch,
// checkouts, merge-base and head inspection, merges and rebases together
// with their conflict-continuation forms, and the destructive reset/clean
// used to prepare the work directory. Commands target an explicit directory
// per call because one invocation can operate on both the primary checkout
// and the work directory.
package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// Runner executes git commands. The zero value is ready to use.
type Runner struct {
	// Quiet adds --quiet to the subcommands that support it.
	Quiet bool
}

// New returns a Runner with quiet output enabled.
func New() *Runner {
	return &Runner{Quiet: true}
}

func (r *Runner) run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmdArgs := append([]string{"-C", dir}, args...)

	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	// Continuation commands (commit, rebase --continue) must never open an
	// editor; the prepared message is always good enough.
	cmd.Env = append(os.Environ(), "GIT_EDITOR=true")

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

func (r *Runner) output(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := r.run(ctx, dir, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *Runner) quietFlag(args []string) []string {
	if r.Quiet {
		return append(args, "--quiet")
	}
	return args
}

// Fetch fetches remoteRef from remoteURL into the local branch localRef.
func (r *Runner) Fetch(ctx context.Context, dir, remoteURL, remoteRef, localRef string) error {
	_, err := r.run(ctx, dir, "fetch", remoteURL, remoteRef+":"+localRef)
	return err
}

// Checkout checks out a ref.
func (r *Runner) Checkout(ctx context.Context, dir, ref string) error {
	args := r.quietFlag([]string{"checkout"})
	_, err := r.run(ctx, dir, append(args, ref)...)
	return err
}

// MergeBase returns the merge base commit of a and b.
func (r *Runner) MergeBase(ctx context.Context, dir, a, b string) (string, error) {
	return r.output(ctx, dir, "merge-base", a, b)
}

// HeadSHA returns the commit id of HEAD.
func (r *Runner) HeadSHA(ctx context.Context, dir string) (string, error) {
	return r.output(ctx, dir, "rev-parse", "HEAD")
}

// CurrentBranch returns the name of the checked-out branch, or an error on a
// detached HEAD or outside a repository.
func (r *Runner) CurrentBranch(ctx context.Context, dir string) (string, error) {
	return r.output(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
}

// SymbolicRef returns the branch HEAD points at without the refs/heads/
// prefix, or "" on a detached HEAD.
func (r *Runner) SymbolicRef(ctx context.Context, dir string) (string, error) {
	out, err := r.output(ctx, dir, "symbolic-ref", "HEAD")
	if err != nil {
		return "", nil
	}
	return strings.TrimPrefix(out, "refs/heads/"), nil
}

// DeleteBranch force-deletes a local branch.
func (r *Runner) DeleteBranch(ctx context.Context, dir, name string) error {
	_, err := r.run(ctx, dir, "branch", "-D", name)
	return err
}

// ResetHardClean discards all local modifications and untracked files.
func (r *Runner) ResetHardClean(ctx context.Context, dir string) error {
	if _, err := r.run(ctx, dir, "reset", "--hard"); err != nil {
		return err
	}
	_, err := r.run(ctx, dir, "clean", "-f")
	return err
}

// Merge merges ref into the current branch. A conflict surfaces as an error
// with the command output attached.
func (r *Runner) Merge(ctx context.Context, dir, ref string) error {
	_, err := r.run(ctx, dir, "merge", ref)
	return err
}

// Rebase rebases the current branch onto ref.
func (r *Runner) Rebase(ctx context.Context, dir, ref string) error {
	_, err := r.run(ctx, dir, "rebase", ref)
	return err
}

// Commit completes an in-progress merge using the prepared merge message.
func (r *Runner) Commit(ctx context.Context, dir string) error {
	_, err := r.run(ctx, dir, "commit", "--no-edit")
	return err
}

// RebaseContinue resumes an in-progress rebase after conflicts were staged.
func (r *Runner) RebaseContinue(ctx context.Context, dir string) error {
	_, err := r.run(ctx, dir, "rebase", "--continue")
	return err
}

// HasLocalBranch reports whether a local branch with the name exists.
func (r *Runner) HasLocalBranch(ctx context.Context, dir, name string) bool {
	_, err := r.run(ctx, dir, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	return err == nil
}

// TopLevel returns the root of the working tree containing dir.
func (r *Runner) TopLevel(ctx context.Context, dir string) (string, error) {
	return r.output(ctx, dir, "rev-parse", "--show-toplevel")
}

// Push pushes a branch to a remote.
func (r *Runner) Push(ctx context.Context, dir, remote, branch string) error {
	_, err := r.run(ctx, dir, "push", remote, branch)
	return err
}

// PullFrom pulls remoteRef from remoteURL into the current branch.
func (r *Runner) PullFrom(ctx context.Context, dir, remoteURL, remoteRef string) error {
	_, err := r.run(ctx, dir, "pull", remoteURL, remoteRef)
	return err
}

// ConfigGet returns a git configuration value, or "" when the key is unset.
func (r *Runner) ConfigGet(ctx context.Context, dir, key string) string {
	out, err := r.output(ctx, dir, "config", "--get", key)
	if err != nil {
		return ""
	}
	return out
}

// ConfigList returns the full flattened configuration (git config -l).
func (r *Runner) ConfigList(ctx context.Context, dir string) (string, error) {
	return r.output(ctx, dir, "config", "-l")
}

// RemoteRepoName returns the owner/name of the GitHub repository the named
// remote points at, or "" when the remote is missing or not a GitHub URL.
func (r *Runner) RemoteRepoName(ctx context.Context, dir, remote string) (string, error) {
	out, err := r.output(ctx, dir, "remote", "-v")
	if err != nil {
		return "", err
	}
	return parseRemoteRepoName(out, remote), nil
}

// parseRemoteRepoName extracts owner/name from git remote -v output for one
// remote. Both SSH (git@github.com:owner/repo.git) and URL forms are
// recognized.
func parseRemoteRepoName(remotes, remote string) string {
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(remote) + `\s+\S*github\.com[:/]([^\s]+?)(?:\.git)?\s`)

	m := re.FindStringSubmatch(remotes)
	if m == nil {
		return ""
	}
	return m[1]
}
