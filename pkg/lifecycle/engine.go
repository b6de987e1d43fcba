// Package lifecycle implements the pull request workflow: fetching pull
// requests into local branches, updating them from the update branch,
// merging, closing, and submitting. It drives git and the GitHub API
// through narrow interfaces so the workflow is testable without either.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gitpr/gitpr/pkg/config"
	"github.com/gitpr/gitpr/pkg/display"
	"github.com/gitpr/gitpr/pkg/github"
	"github.com/gitpr/gitpr/pkg/log"
	"github.com/gitpr/gitpr/pkg/naming"
	"github.com/gitpr/gitpr/pkg/notify"
	"github.com/gitpr/gitpr/pkg/statestore"
	"github.com/gitpr/gitpr/pkg/workdir"
)

// abbrevLen is the commit id abbreviation used in commit range markers.
const abbrevLen = 10

var (
	// ErrConflict means an update hit merge or rebase conflicts. Resolve
	// them, git add the files, and run continue-update.
	ErrConflict = errors.New("update stopped on conflicts")

	// ErrStillBlocked means continue-update could not finish, usually
	// because conflicts remain unresolved.
	ErrStillBlocked = errors.New("update could not be continued")

	// ErrInvalidContext means the operation was attempted from inside the
	// work directory.
	ErrInvalidContext = errors.New("cannot run inside the work directory")

	// ErrFetchFailed means the pull request branch could not be fetched
	// and no previously fetched local branch exists.
	ErrFetchFailed = errors.New("fetch failed")
)

// Git is the subset of git operations the engine needs. All calls target
// the currently active directory.
type Git interface {
	Fetch(ctx context.Context, dir, remoteURL, remoteRef, localRef string) error
	Checkout(ctx context.Context, dir, ref string) error
	MergeBase(ctx context.Context, dir, a, b string) (string, error)
	HeadSHA(ctx context.Context, dir string) (string, error)
	CurrentBranch(ctx context.Context, dir string) (string, error)
	DeleteBranch(ctx context.Context, dir, name string) error
	Merge(ctx context.Context, dir, ref string) error
	Rebase(ctx context.Context, dir, ref string) error
	Commit(ctx context.Context, dir string) error
	RebaseContinue(ctx context.Context, dir string) error
	HasLocalBranch(ctx context.Context, dir, name string) bool
	Push(ctx context.Context, dir, remote, branch string) error
	PullFrom(ctx context.Context, dir, remoteURL, remoteRef string) error
	RemoteRepoName(ctx context.Context, dir, remote string) (string, error)
}

// Hosting is the subset of the GitHub API the engine needs.
type Hosting interface {
	PullRequest(ctx context.Context, repo string, number int) (*github.PullRequest, error)
	OpenPullRequests(ctx context.Context, repo, baseRef string) ([]*github.PullRequest, error)
	CreatePullRequest(ctx context.Context, repo string, npr github.NewPullRequest) (*github.PullRequest, error)
	ClosePullRequest(ctx context.Context, repo string, number int) error
	PostComment(ctx context.Context, repo string, number int, body string) error
	Repositories(ctx context.Context, user string) ([]github.Repository, error)
}

// Notifier is called after submit with the pull request and the logins
// mentioned in its body.
type Notifier func(ctx context.Context, pr *github.PullRequest, logins []string) error

// Engine executes pull request operations against one repository.
type Engine struct {
	// Repo is the target repository as owner/name.
	Repo string

	Config *config.Config
	Git    Git
	API    Hosting
	Store  *statestore.Store
	Dirs   *workdir.Redirector
	Naming naming.Resolver
	Out    *display.Printer

	// Notify is optional; nil disables submit notifications.
	Notify Notifier
}

func (e *Engine) dir() string {
	return e.Dirs.ActiveDir()
}

// currentBranch returns the checked-out branch of the active directory.
func (e *Engine) currentBranch(ctx context.Context) (string, error) {
	branch, err := e.Git.CurrentBranch(ctx, e.dir())
	if err != nil {
		return "", fmt.Errorf("failed to determine current branch: %w", err)
	}
	return branch, nil
}

// currentRequestBranch returns the current branch and its pull request
// number, failing when the branch is not a fetched pull request branch.
func (e *Engine) currentRequestBranch(ctx context.Context) (string, int, error) {
	branch, err := e.currentBranch(ctx)
	if err != nil {
		return "", 0, err
	}

	id, err := e.Naming.RequestID(branch)
	if err != nil {
		return "", 0, err
	}
	return branch, id, nil
}

// Fetch fetches a pull request into a local branch. With autoUpdate the
// branch is immediately updated from the update branch; otherwise the
// fetch-auto-checkout option decides whether to check it out.
func (e *Engine) Fetch(ctx context.Context, number int, autoUpdate bool) error {
	e.Out.Statusf("Fetching pull request")
	e.Out.Println()

	pr, err := e.API.PullRequest(ctx, e.Repo, number)
	if err != nil {
		return err
	}
	e.Out.PullRequest(pr)

	branch, err := e.fetchBranch(ctx, pr)
	if err != nil {
		return err
	}

	if autoUpdate || e.Config.FetchAutoUpdate {
		if err := e.updateBranch(ctx, branch); err != nil {
			return err
		}
	} else if e.Config.FetchAutoCheckout {
		if err := e.Git.Checkout(ctx, e.dir(), branch); err != nil {
			return fmt.Errorf("could not checkout %s: %w", branch, err)
		}
	}

	e.Out.Println()
	e.Out.Successf("Fetch completed")
	e.Out.Println()
	return e.ShowStatus(ctx)
}

// FetchAll fetches every open pull request into its local branch.
func (e *Engine) FetchAll(ctx context.Context) error {
	e.Out.Statusf("Fetching all pull requests")
	e.Out.Println()

	prs, err := e.openPullRequests(ctx)
	if err != nil {
		return err
	}

	for _, pr := range prs {
		if _, err := e.fetchBranch(ctx, pr); err != nil {
			return err
		}
		e.Out.PullRequestMinimal(pr)
		e.Out.Println()
	}

	return e.ShowStatus(ctx)
}

// fetchBranch fetches the head of pr into its local branch and returns
// the branch name. A fetch failure is tolerated when the branch already
// exists locally from an earlier fetch, which covers head repositories
// that have since been deleted. Any stale commit range marker for the
// pull request is discarded.
func (e *Engine) fetchBranch(ctx context.Context, pr *github.PullRequest) (string, error) {
	branch := e.Naming.BranchName(pr.Number, pr.HeadRef, pr.Title)
	remoteURL := pr.HeadRemoteURL()

	if err := e.Git.Fetch(ctx, e.dir(), remoteURL, pr.HeadRef, branch); err != nil {
		if !e.Git.HasLocalBranch(ctx, e.dir(), branch) {
			return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
		log.Debug("fetch failed but local branch exists", "branch", branch)
	}

	if err := e.Store.DeleteCommitRange(pr.Number); err != nil {
		log.Warn("failed to discard stale commit range", "number", pr.Number, "error", err)
	}

	return branch, nil
}

// List prints the open pull requests.
func (e *Engine) List(ctx context.Context) error {
	scope := "across all branches"
	if e.Config.FilterByUpdateBranch {
		scope = fmt.Sprintf("on branch '%s'", e.Config.UpdateBranch)
	}

	e.Out.Statusf("Loading open pull requests for %s %s", e.Repo, scope)
	e.Out.Println()

	prs, err := e.openPullRequests(ctx)
	if err != nil {
		return err
	}

	if len(prs) == 0 {
		e.Out.Println("No open pull requests found")
	}
	for _, pr := range prs {
		e.Out.PullRequest(pr)
	}

	return e.ShowStatus(ctx)
}

func (e *Engine) openPullRequests(ctx context.Context) ([]*github.PullRequest, error) {
	baseRef := ""
	if e.Config.FilterByUpdateBranch {
		baseRef = e.Config.UpdateBranch
	}
	return e.API.OpenPullRequests(ctx, e.Repo, baseRef)
}

// Update updates a pull request branch from the update branch. target may
// be empty (the current branch), a pull request number, or a branch name.
func (e *Engine) Update(ctx context.Context, target string) error {
	branch, err := e.resolveUpdateTarget(ctx, target)
	if err != nil {
		return err
	}

	e.Out.Statusf("Updating %s from %s", branch, e.Config.UpdateBranch)

	if err := e.updateBranch(ctx, branch); err != nil {
		return err
	}

	e.Out.Println()
	return e.ShowStatus(ctx)
}

func (e *Engine) resolveUpdateTarget(ctx context.Context, target string) (string, error) {
	if target == "" {
		branch, _, err := e.currentRequestBranch(ctx)
		return branch, err
	}

	if number, err := strconv.Atoi(target); err == nil {
		pr, err := e.API.PullRequest(ctx, e.Repo, number)
		if err != nil {
			return "", err
		}
		return e.Naming.BranchName(pr.Number, pr.HeadRef, pr.Title), nil
	}

	return target, nil
}

// updateBranch runs the update in the work directory when one is
// configured. The commit range marker is recorded before the merge or
// rebase starts so the pre-update commits survive a conflicted update.
func (e *Engine) updateBranch(ctx context.Context, branch string) error {
	inside, err := e.Dirs.Inside(ctx)
	if err != nil {
		return err
	}
	if inside {
		return fmt.Errorf("%w: if you are done fixing conflicts run 'continue-update' to complete the update", ErrInvalidContext)
	}

	if e.Dirs.Configured() {
		e.Out.Statusf("Switching to work directory %s", e.Dirs.WorkDir())
		if err := e.Dirs.Enter(ctx); err != nil {
			return fmt.Errorf("update not performed: %w", err)
		}
	}

	if err := e.Git.Checkout(ctx, e.dir(), branch); err != nil {
		return fmt.Errorf("could not checkout %s, update not performed: %w", branch, err)
	}

	if err := e.recordCommitRange(ctx, branch); err != nil {
		return err
	}

	if err := e.runUpdateMethod(ctx); err != nil {
		// Leave the shell in the directory holding the conflict.
		e.Dirs.RecordActive()
		return fmt.Errorf("updating %s from %s failed\nResolve conflicts and 'git add' files, then run 'continue-update': %w",
			branch, e.Config.UpdateBranch, ErrConflict)
	}

	return e.completeUpdate(ctx, branch)
}

func (e *Engine) runUpdateMethod(ctx context.Context) error {
	switch e.Config.UpdateMethod {
	case "rebase":
		return e.Git.Rebase(ctx, e.dir(), e.Config.UpdateBranch)
	default:
		return e.Git.Merge(ctx, e.dir(), e.Config.UpdateBranch)
	}
}

// recordCommitRange persists the branch's pre-update commit range so the
// close comment can reference the original commits. A branch that has not
// diverged from the update branch is identified by its head commit alone.
func (e *Engine) recordCommitRange(ctx context.Context, branch string) error {
	base, err := e.Git.MergeBase(ctx, e.dir(), e.Config.UpdateBranch, branch)
	if err != nil {
		return err
	}
	head, err := e.Git.HeadSHA(ctx, e.dir())
	if err != nil {
		return err
	}

	marker := abbrev(head)
	if base != head {
		marker = abbrev(base) + ".." + abbrev(head)
	}

	id, err := e.Naming.RequestID(branch)
	if err != nil {
		return err
	}
	if err := e.Store.PutCommitRange(id, marker); err != nil {
		return fmt.Errorf("failed to record commit range: %w", err)
	}

	e.Out.Statusf("Original commits: %s", marker)
	return nil
}

func abbrev(sha string) string {
	if len(sha) > abbrevLen {
		return sha[:abbrevLen]
	}
	return sha
}

// completeUpdate settles the checkouts after a successful merge or
// rebase: the work directory is parked on the update branch and the
// original checkout is synced to the updated branch.
func (e *Engine) completeUpdate(ctx context.Context, branch string) error {
	inside, err := e.Dirs.Inside(ctx)
	if err != nil {
		return err
	}

	if inside {
		originalDir, err := e.Dirs.Leave(ctx, e.Config.UpdateBranch, branch)
		if err != nil {
			return err
		}
		e.Out.Statusf("Switching to original directory: '%s'", originalDir)
	}

	e.Out.Println()
	e.Out.Successf("Updating %s from %s complete", branch, e.Config.UpdateBranch)
	return nil
}

// ContinueUpdate finishes an update that stopped on conflicts: it commits
// the resolved merge or continues the rebase, then settles the checkouts.
func (e *Engine) ContinueUpdate(ctx context.Context) error {
	e.Out.Statusf("Continuing update from %s", e.Config.UpdateBranch)

	var err error
	switch e.Config.UpdateMethod {
	case "rebase":
		err = e.Git.RebaseContinue(ctx, e.dir())
	default:
		err = e.Git.Commit(ctx, e.dir())
	}
	if err != nil {
		return fmt.Errorf("updating from %s failed\nResolve conflicts and 'git add' files, then run 'continue-update': %w",
			e.Config.UpdateBranch, ErrStillBlocked)
	}

	// The branch name is only correct once the merge or rebase is done.
	branch, _, err := e.currentRequestBranch(ctx)
	if err != nil {
		return err
	}

	if err := e.completeUpdate(ctx, branch); err != nil {
		return err
	}

	e.Out.Println()
	return e.ShowStatus(ctx)
}

// Merge merges the current pull request branch into the update branch,
// deletes the branch, and closes the pull request when merge-auto-close
// is set.
func (e *Engine) Merge(ctx context.Context, comment string) error {
	branch, id, err := e.currentRequestBranch(ctx)
	if err != nil {
		return err
	}

	e.Out.Statusf("Merging %s into %s", branch, e.Config.UpdateBranch)
	e.Out.Println()

	if err := e.Git.Checkout(ctx, e.dir(), e.Config.UpdateBranch); err != nil {
		return fmt.Errorf("could not checkout %s: %w", e.Config.UpdateBranch, err)
	}

	if err := e.Git.Merge(ctx, e.dir(), branch); err != nil {
		return fmt.Errorf("merge with %s failed. Resolve conflicts, switch back into the pull request branch, and merge again: %w",
			e.Config.UpdateBranch, err)
	}

	e.Out.Statusf("Deleting branch %s", branch)
	if err := e.Git.DeleteBranch(ctx, e.dir(), branch); err != nil {
		return fmt.Errorf("could not delete branch: %w", err)
	}

	if e.Config.MergeAutoClose {
		e.Out.Statusf("Closing pull request")
		if err := e.closeRequest(ctx, id, comment); err != nil {
			return err
		}
	}

	e.Out.Println()
	e.Out.Successf("Merge completed")
	e.Out.Println()
	return e.ShowStatus(ctx)
}

// Close closes the current pull request with an optional comment, then
// deletes its local branch.
func (e *Engine) Close(ctx context.Context, comment string) error {
	e.Out.Statusf("Closing pull request")
	e.Out.Println()

	branch, id, err := e.currentRequestBranch(ctx)
	if err != nil {
		return err
	}

	pr, err := e.API.PullRequest(ctx, e.Repo, id)
	if err != nil {
		return err
	}
	e.Out.PullRequest(pr)

	if err := e.closeRequest(ctx, id, comment); err != nil {
		return err
	}

	if err := e.Git.Checkout(ctx, e.dir(), e.Config.UpdateBranch); err != nil {
		return fmt.Errorf("could not checkout %s: %w", e.Config.UpdateBranch, err)
	}

	e.Out.Statusf("Deleting branch %s", branch)
	if err := e.Git.DeleteBranch(ctx, e.dir(), branch); err != nil {
		return fmt.Errorf("could not delete branch: %w", err)
	}

	e.Out.Println()
	e.Out.Successf("Pull request closed")
	e.Out.Println()
	return e.ShowStatus(ctx)
}

// closeRequest closes the pull request on GitHub, posting the comment
// first. A recorded commit range is appended to the comment and consumed.
// Comment delivery is best effort: a failed comment never blocks the
// close.
func (e *Engine) closeRequest(ctx context.Context, id int, comment string) error {
	if comment == "" {
		comment = e.Config.CloseDefaultComment
	}

	if marker, ok, err := e.Store.TakeCommitRange(id); err == nil && ok {
		comment += "\n\nOriginal commits: " + marker
	}

	if strings.TrimSpace(comment) != "" {
		if err := e.API.PostComment(ctx, e.Repo, id, comment); err != nil {
			log.Warn("failed to post close comment", "number", id, "error", err)
		}
	}

	return e.API.ClosePullRequest(ctx, e.Repo, id)
}

// Pull pulls remote changes of the pull request head into the current
// local branch.
func (e *Engine) Pull(ctx context.Context) error {
	branch, id, err := e.currentRequestBranch(ctx)
	if err != nil {
		return err
	}

	e.Out.Statusf("Pulling remote changes into %s", branch)

	pr, err := e.API.PullRequest(ctx, e.Repo, id)
	if err != nil {
		return err
	}

	remoteURL := pr.HeadRemoteURL()
	e.Out.Statusf("Pulling from %s (%s)", remoteURL, pr.HeadRef)

	if err := e.Git.PullFrom(ctx, e.dir(), remoteURL, pr.HeadRef); err != nil {
		return fmt.Errorf("pull failed, resolve conflicts: %w", err)
	}

	e.Out.Println()
	e.Out.Successf("Updating %s from remote completed", branch)
	e.Out.Println()
	return e.ShowStatus(ctx)
}

// RequestURL returns the pull request's page URL. number 0 means the pull
// request of the current branch.
func (e *Engine) RequestURL(ctx context.Context, number int) (string, error) {
	if number == 0 {
		_, id, err := e.currentRequestBranch(ctx)
		if err != nil {
			return "", err
		}
		number = id
	}

	pr, err := e.API.PullRequest(ctx, e.Repo, number)
	if err != nil {
		return "", err
	}
	return pr.URL, nil
}

// Info prints per-repository open pull request counts for a user, with
// the individual requests when detailed is set.
func (e *Engine) Info(ctx context.Context, username string, detailed bool) error {
	e.Out.Statusf("Loading information on repositories for %s", username)
	e.Out.Println()

	repos, err := e.API.Repositories(ctx, username)
	if err != nil {
		return err
	}

	total := 0
	for _, repo := range repos {
		if repo.OpenIssues == 0 {
			continue
		}

		e.Out.RepoCount(repo.Name, repo.OpenIssues)
		total += repo.OpenIssues

		if detailed {
			baseRef := ""
			if e.Config.FilterByUpdateBranch {
				baseRef = e.Config.UpdateBranch
			}
			prs, err := e.API.OpenPullRequests(ctx, repo.FullName, baseRef)
			if err != nil {
				return err
			}
			for _, pr := range prs {
				e.Out.PullRequestMinimal(pr)
			}
		}
	}

	e.Out.TotalCount(total)
	e.Out.Println()
	return e.ShowStatus(ctx)
}

// SubmitOptions carries the submit command's inputs.
type SubmitOptions struct {
	// Username is the GitHub login owning the pushed branch.
	Username string

	// Reviewer is the repository to open the pull request on: owner/name,
	// a bare owner, or empty to use the upstream remote.
	Reviewer string

	// Title overrides the derived title; Tags are appended to it.
	Title string
	Tags  []string

	// Body is the pull request description.
	Body string
}

// Submit pushes the current branch to origin and opens a pull request on
// the reviewer repository. The created pull request is returned so the
// caller can open it in a browser.
func (e *Engine) Submit(ctx context.Context, opts SubmitOptions) (*github.PullRequest, error) {
	branch, err := e.currentBranch(ctx)
	if err != nil {
		return nil, err
	}

	e.Out.Statusf("Submitting pull request for %s", branch)

	reviewerRepo, err := e.resolveReviewer(ctx, opts)
	if err != nil {
		return nil, err
	}

	e.Out.Statusf("Pushing local branch %s to origin", branch)
	if err := e.Git.Push(ctx, e.dir(), "origin", branch); err != nil {
		return nil, fmt.Errorf("could not push this branch to your origin: %w", err)
	}

	title := e.Naming.Title(branch, opts.Title, opts.Tags)

	body := opts.Body
	if body == "" && !e.Config.AllowEmptyBody {
		return nil, fmt.Errorf("pull request body required: pass one or set allow-empty-body")
	}

	if e.Config.AutoSendNotificationTo != "" {
		var receivers []string
		for _, r := range strings.Split(e.Config.AutoSendNotificationTo, ",") {
			if r = strings.TrimSpace(r); r != "" {
				receivers = append(receivers, "@"+r)
			}
		}
		if len(receivers) > 0 {
			body += "\nNotification sent to: " + strings.Join(receivers, ", ")
		}
	}

	e.Out.Statusf("Sending pull request to %s", reviewerRepo)

	pr, err := e.API.CreatePullRequest(ctx, reviewerRepo, github.NewPullRequest{
		Base:  e.Config.UpdateBranch,
		Head:  opts.Username + ":" + branch,
		Title: title,
		Body:  body,
	})
	if err != nil {
		return nil, err
	}

	e.Out.Println()
	e.Out.PullRequest(pr)
	e.Out.Successf("Pull request submitted")

	e.notifyMentions(ctx, pr)

	e.Out.Println()
	if err := e.ShowStatus(ctx); err != nil {
		return nil, err
	}
	return pr, nil
}

func (e *Engine) resolveReviewer(ctx context.Context, opts SubmitOptions) (string, error) {
	reviewer := opts.Reviewer
	if reviewer == "" {
		reviewer = e.Config.Reviewer
	}
	if reviewer == "" {
		upstream, err := e.Git.RemoteRepoName(ctx, e.dir(), "upstream")
		if err != nil {
			return "", err
		}
		reviewer = upstream
	}
	if reviewer == "" {
		return "", fmt.Errorf("could not determine a repo to submit this pull request to")
	}

	// A bare owner borrows the repository name from the origin repo.
	if !strings.Contains(reviewer, "/") {
		reviewer = strings.Replace(e.Repo, opts.Username, reviewer, 1)
	}
	return reviewer, nil
}

func (e *Engine) notifyMentions(ctx context.Context, pr *github.PullRequest) {
	if e.Notify == nil {
		return
	}

	logins := notify.Mentions(pr.Body)
	if len(logins) == 0 {
		return
	}

	if err := e.Notify(ctx, pr, logins); err != nil {
		log.Warn("failed to send notifications", "error", err)
	}
}

// ShowStatus prints the current branch of the active directory.
func (e *Engine) ShowStatus(ctx context.Context) error {
	branch, err := e.currentBranch(ctx)
	if err != nil {
		return err
	}
	e.Out.CurrentBranch(branch)
	return nil
}
