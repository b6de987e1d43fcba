// Package workdir manages the optional work directory: a second checkout
// of the same repository, sharing its git config through a symlink, where
// updates run so the primary checkout is not churned by IDE rebuilds. The
// work directory is hard reset before every use, so nothing but conflict
// resolution should ever happen there.
package workdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gitpr/gitpr/pkg/log"
	"github.com/gitpr/gitpr/pkg/statestore"
)

// Git is the subset of git operations the redirector needs.
type Git interface {
	TopLevel(ctx context.Context, dir string) (string, error)
	Checkout(ctx context.Context, dir, ref string) error
	ResetHardClean(ctx context.Context, dir string) error
	CurrentBranch(ctx context.Context, dir string) (string, error)
}

// Metadata answers filesystem questions about a checkout. Split out so
// tests can fake the symlink layout of a work directory.
type Metadata interface {
	// IsSymlink reports whether path exists and is a symbolic link.
	IsSymlink(path string) bool
	// Readlink returns the target of a symbolic link.
	Readlink(path string) (string, error)
}

// OSMetadata is the Metadata implementation backed by the real filesystem.
type OSMetadata struct{}

func (OSMetadata) IsSymlink(path string) bool {
	fi, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeSymlink != 0
}

func (OSMetadata) Readlink(path string) (string, error) {
	return os.Readlink(path)
}

// Redirector routes operations between the primary checkout and the work
// directory. It tracks the active directory rather than changing the
// process working directory; a shell helper reads the recorded directory
// after the command exits to follow along.
type Redirector struct {
	workDir string
	git     Git
	meta    Metadata

	// store is rooted at {workDir}/.git and holds the original directory
	// record.
	store *statestore.Store

	// shell is where the active directory is recorded for the shell
	// helper.
	shell *statestore.Store

	active string
}

// NewRedirector returns a redirector starting in startDir. workDir may be
// empty or name a directory missing from disk; both disable redirection,
// so updates run in the primary checkout. shell may be nil to skip
// recording directory changes.
func NewRedirector(workDir string, g Git, meta Metadata, shell *statestore.Store, startDir string) *Redirector {
	if workDir != "" {
		if fi, err := os.Stat(workDir); err != nil || !fi.IsDir() {
			log.Debug("configured work directory does not exist, running in place", "dir", workDir)
			workDir = ""
		}
	}

	r := &Redirector{
		workDir: workDir,
		git:     g,
		meta:    meta,
		shell:   shell,
		active:  startDir,
	}
	if workDir != "" {
		r.store = statestore.New(filepath.Join(workDir, ".git"))
	}
	return r
}

// Configured reports whether a work directory is in use.
func (r *Redirector) Configured() bool {
	return r.workDir != ""
}

// WorkDir returns the configured work directory, or "".
func (r *Redirector) WorkDir() string {
	return r.workDir
}

// ActiveDir returns the directory operations currently target.
func (r *Redirector) ActiveDir() string {
	return r.active
}

// Inside reports whether the active directory is the work directory. The
// check requires both that the working tree root equals the work directory
// and that .git/config is a symlink, which is how a work directory shares
// the primary checkout's configuration.
func (r *Redirector) Inside(ctx context.Context) (bool, error) {
	if r.workDir == "" {
		return false, nil
	}

	top, err := r.git.TopLevel(ctx, r.active)
	if err != nil {
		return false, err
	}

	return top == r.workDir && r.meta.IsSymlink(filepath.Join(top, ".git", "config")), nil
}

// Enter switches to the work directory: the current checkout's root is
// recorded so Leave can find the way back, and the work directory is hard
// reset to a clean slate.
func (r *Redirector) Enter(ctx context.Context) error {
	if r.workDir == "" {
		return nil
	}

	originalDir, err := r.git.TopLevel(ctx, r.active)
	if err != nil {
		return fmt.Errorf("failed to resolve checkout root: %w", err)
	}

	if err := r.store.PutOriginalDir(originalDir); err != nil {
		return fmt.Errorf("failed to record original directory: %w", err)
	}

	r.setActive(r.workDir)

	if err := r.git.ResetHardClean(ctx, r.workDir); err != nil {
		return fmt.Errorf("cleaning up work directory failed: %w", err)
	}

	log.Debug("entered work directory", "dir", r.workDir, "from", originalDir)
	return nil
}

// OriginalDir returns the primary checkout the work directory was entered
// from. Falls back to resolving the .git/config symlink when the record is
// missing, which recovers after a crash between Enter and Leave.
func (r *Redirector) OriginalDir(ctx context.Context) (string, error) {
	if dir, ok, err := r.store.OriginalDir(); err == nil && ok && dir != "" {
		return dir, nil
	}

	top, err := r.git.TopLevel(ctx, r.active)
	if err != nil {
		return "", err
	}

	target, err := r.meta.Readlink(filepath.Join(top, ".git", "config"))
	if err != nil {
		return "", fmt.Errorf("cannot determine original directory: %w", err)
	}

	// The symlink points at {original}/.git/config.
	return filepath.Dir(filepath.Dir(target)), nil
}

// Leave parks the work directory on updateBranch, switches back to the
// original checkout, and syncs branchName there: reset and clean when the
// branch is already checked out, plain checkout otherwise.
func (r *Redirector) Leave(ctx context.Context, updateBranch, branchName string) (string, error) {
	if err := r.git.Checkout(ctx, r.active, updateBranch); err != nil {
		return "", fmt.Errorf("could not checkout %s branch in work directory: %w", updateBranch, err)
	}

	originalDir, err := r.OriginalDir(ctx)
	if err != nil {
		return "", err
	}

	r.setActive(originalDir)

	current, err := r.git.CurrentBranch(ctx, originalDir)
	if err != nil {
		return "", err
	}

	if current == branchName {
		if err := r.git.ResetHardClean(ctx, originalDir); err != nil {
			return "", fmt.Errorf("syncing branch %s with work directory failed: %w", branchName, err)
		}
	} else {
		if err := r.git.Checkout(ctx, originalDir, branchName); err != nil {
			return "", fmt.Errorf("could not checkout %s: %w", branchName, err)
		}
	}

	log.Debug("left work directory", "to", originalDir, "branch", branchName)
	return originalDir, nil
}

// RecordActive re-records the active directory for the shell helper.
// Called before bailing out of a half-finished update so the user lands in
// the directory holding the conflict.
func (r *Redirector) RecordActive() {
	r.setActive(r.active)
}

func (r *Redirector) setActive(dir string) {
	r.active = dir
	if r.shell != nil {
		if err := r.shell.PutLastDir(dir); err != nil {
			log.Warn("failed to record directory change", "dir", dir, "error", err)
		}
	}
}
