package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gitpr/gitpr/pkg/config"
	"github.com/gitpr/gitpr/pkg/display"
	"github.com/gitpr/gitpr/pkg/github"
	"github.com/gitpr/gitpr/pkg/naming"
	"github.com/gitpr/gitpr/pkg/statestore"
	"github.com/gitpr/gitpr/pkg/workdir"
)

// fakeGit serves canned answers and records every mutating call.
type fakeGit struct {
	branches      map[string]string // current branch per dir
	topLevels     map[string]string
	localBranches map[string]bool
	remotes       map[string]string

	mergeBase string
	head      string

	fetchErr          error
	mergeErr          error
	rebaseErr         error
	commitErr         error
	rebaseContinueErr error

	calls []string
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		branches:      map[string]string{},
		topLevels:     map[string]string{},
		localBranches: map[string]bool{},
		remotes:       map[string]string{},
	}
}

func (g *fakeGit) record(format string, args ...interface{}) {
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

func (g *fakeGit) called(call string) bool {
	for _, c := range g.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (g *fakeGit) Fetch(_ context.Context, dir, url, remoteRef, localRef string) error {
	g.record("fetch %s %s:%s", url, remoteRef, localRef)
	if g.fetchErr != nil {
		return g.fetchErr
	}
	g.localBranches[localRef] = true
	return nil
}

func (g *fakeGit) Checkout(_ context.Context, dir, ref string) error {
	g.record("checkout %s %s", dir, ref)
	g.branches[dir] = ref
	return nil
}

func (g *fakeGit) MergeBase(_ context.Context, dir, a, b string) (string, error) {
	return g.mergeBase, nil
}

func (g *fakeGit) HeadSHA(_ context.Context, dir string) (string, error) {
	return g.head, nil
}

func (g *fakeGit) CurrentBranch(_ context.Context, dir string) (string, error) {
	if b, ok := g.branches[dir]; ok {
		return b, nil
	}
	return "", errors.New("not a git repository")
}

func (g *fakeGit) DeleteBranch(_ context.Context, dir, name string) error {
	g.record("branch -D %s", name)
	delete(g.localBranches, name)
	return nil
}

func (g *fakeGit) ResetHardClean(_ context.Context, dir string) error {
	g.record("reset+clean %s", dir)
	return nil
}

func (g *fakeGit) Merge(_ context.Context, dir, ref string) error {
	g.record("merge %s %s", dir, ref)
	return g.mergeErr
}

func (g *fakeGit) Rebase(_ context.Context, dir, ref string) error {
	g.record("rebase %s %s", dir, ref)
	return g.rebaseErr
}

func (g *fakeGit) Commit(_ context.Context, dir string) error {
	g.record("commit %s", dir)
	return g.commitErr
}

func (g *fakeGit) RebaseContinue(_ context.Context, dir string) error {
	g.record("rebase --continue %s", dir)
	return g.rebaseContinueErr
}

func (g *fakeGit) HasLocalBranch(_ context.Context, dir, name string) bool {
	return g.localBranches[name]
}

func (g *fakeGit) TopLevel(_ context.Context, dir string) (string, error) {
	if top, ok := g.topLevels[dir]; ok {
		return top, nil
	}
	return "", errors.New("not a git repository")
}

func (g *fakeGit) Push(_ context.Context, dir, remote, branch string) error {
	g.record("push %s %s", remote, branch)
	return nil
}

func (g *fakeGit) PullFrom(_ context.Context, dir, url, ref string) error {
	g.record("pull %s %s", url, ref)
	return nil
}

func (g *fakeGit) RemoteRepoName(_ context.Context, dir, remote string) (string, error) {
	return g.remotes[remote], nil
}

// fakeAPI is an in-memory Hosting implementation.
type fakeAPI struct {
	prs   map[int]*github.PullRequest
	open  []*github.PullRequest
	repos []github.Repository

	closed     []int
	comments   map[int][]string
	commentErr error

	created     []github.NewPullRequest
	createdRepo string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		prs:      map[int]*github.PullRequest{},
		comments: map[int][]string{},
	}
}

func (a *fakeAPI) PullRequest(_ context.Context, repo string, number int) (*github.PullRequest, error) {
	pr, ok := a.prs[number]
	if !ok {
		return nil, fmt.Errorf("pull request %d not found", number)
	}
	return pr, nil
}

func (a *fakeAPI) OpenPullRequests(_ context.Context, repo, baseRef string) ([]*github.PullRequest, error) {
	if baseRef == "" {
		return a.open, nil
	}
	var filtered []*github.PullRequest
	for _, pr := range a.open {
		if pr.BaseRef == baseRef {
			filtered = append(filtered, pr)
		}
	}
	return filtered, nil
}

func (a *fakeAPI) CreatePullRequest(_ context.Context, repo string, npr github.NewPullRequest) (*github.PullRequest, error) {
	a.createdRepo = repo
	a.created = append(a.created, npr)
	return &github.PullRequest{
		Number: 100,
		Title:  npr.Title,
		Body:   npr.Body,
		State:  "open",
		URL:    "https://github.com/" + repo + "/pull/100",
	}, nil
}

func (a *fakeAPI) ClosePullRequest(_ context.Context, repo string, number int) error {
	a.closed = append(a.closed, number)
	return nil
}

func (a *fakeAPI) PostComment(_ context.Context, repo string, number int, body string) error {
	if a.commentErr != nil {
		return a.commentErr
	}
	a.comments[number] = append(a.comments[number], body)
	return nil
}

func (a *fakeAPI) Repositories(_ context.Context, user string) ([]github.Repository, error) {
	return a.repos, nil
}

// fakeMeta mirrors the work directory symlink layout.
type fakeMeta struct {
	symlinks map[string]string
}

func (m fakeMeta) IsSymlink(path string) bool {
	_, ok := m.symlinks[path]
	return ok
}

func (m fakeMeta) Readlink(path string) (string, error) {
	target, ok := m.symlinks[path]
	if !ok {
		return "", errors.New("not a symlink")
	}
	return target, nil
}

const repoDir = "/home/dev/portal"

func newTestEngine(t *testing.T, git *fakeGit, api *fakeAPI, workDir string, meta fakeMeta) (*Engine, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	return &Engine{
		Repo:   "brianchandotcom/liferay-portal",
		Config: config.Default(),
		Git:    git,
		API:    api,
		Store:  statestore.New(t.TempDir()),
		Dirs:   workdir.NewRedirector(workDir, git, meta, nil, repoDir),
		Out:    display.NewTo(&buf, false),
	}, &buf
}

func samplePR(number int) *github.PullRequest {
	return &github.PullRequest{
		Number:      number,
		Title:       "LPS-1234 Fix portlet rendering",
		Body:        "Details",
		State:       "open",
		URL:         fmt.Sprintf("https://github.com/brianchandotcom/liferay-portal/pull/%d", number),
		BaseRef:     "master",
		HeadRef:     "LPS-1234-fix",
		HeadSHA:     "0123456789abcdef0123456789abcdef01234567",
		Author:      "contributor",
		HeadRepoURL: "https://github.com/contributor/liferay-portal.git",
	}
}

func TestFetchCreatesBranchAndClearsStaleMarker(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "master"
	api := newFakeAPI()
	api.prs[42] = samplePR(42)

	e, out := newTestEngine(t, git, api, "", fakeMeta{})

	// A marker left behind by an update of a previous incarnation of the
	// pull request must not leak into the refetched branch.
	if err := e.Store.PutCommitRange(42, "stale..marker"); err != nil {
		t.Fatal(err)
	}

	if err := e.Fetch(context.Background(), 42, false); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	want := "fetch https://github.com/contributor/liferay-portal.git LPS-1234-fix:pull-request-42-LPS-1234"
	if !git.called(want) {
		t.Errorf("missing %q in %v", want, git.calls)
	}

	if _, ok, _ := e.Store.TakeCommitRange(42); ok {
		t.Error("stale commit range marker should have been discarded")
	}

	if !strings.Contains(out.String(), "Fetch completed") {
		t.Errorf("missing success message in output: %q", out.String())
	}
}

func TestFetchAutoCheckout(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "master"
	api := newFakeAPI()
	api.prs[42] = samplePR(42)

	e, _ := newTestEngine(t, git, api, "", fakeMeta{})
	e.Config.FetchAutoCheckout = true

	if err := e.Fetch(context.Background(), 42, false); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got := git.branches[repoDir]; got != "pull-request-42-LPS-1234" {
		t.Errorf("current branch = %q, want the fetched branch", got)
	}
}

func TestFetchFallsBackToExistingLocalBranch(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "master"
	git.fetchErr = errors.New("remote gone")
	git.localBranches["pull-request-42-LPS-1234"] = true

	api := newFakeAPI()
	api.prs[42] = samplePR(42)

	e, _ := newTestEngine(t, git, api, "", fakeMeta{})

	if err := e.Fetch(context.Background(), 42, false); err != nil {
		t.Fatalf("Fetch() should tolerate a failed fetch when the branch exists, got %v", err)
	}
}

func TestFetchFailsWithoutLocalBranch(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "master"
	git.fetchErr = errors.New("remote gone")

	api := newFakeAPI()
	api.prs[42] = samplePR(42)

	e, _ := newTestEngine(t, git, api, "", fakeMeta{})

	err := e.Fetch(context.Background(), 42, false)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Fetch() error = %v, want ErrFetchFailed", err)
	}
}

func TestUpdateRecordsDivergedCommitRange(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "pull-request-42-LPS-1234"
	git.mergeBase = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	git.head = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	e, out := newTestEngine(t, git, newFakeAPI(), "", fakeMeta{})

	if err := e.Update(context.Background(), ""); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	marker, ok, err := e.Store.TakeCommitRange(42)
	if err != nil || !ok {
		t.Fatalf("commit range missing: ok=%v err=%v", ok, err)
	}
	if marker != "aaaaaaaaaa..bbbbbbbbbb" {
		t.Errorf("marker = %q, want 10-char abbreviated range", marker)
	}

	if !git.called(fmt.Sprintf("merge %s master", repoDir)) {
		t.Errorf("expected merge of master, calls: %v", git.calls)
	}
	if !strings.Contains(out.String(), "Original commits: aaaaaaaaaa..bbbbbbbbbb") {
		t.Errorf("marker not announced: %q", out.String())
	}
}

func TestUpdateNonDivergedMarkerIsHeadOnly(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "pull-request-7"
	git.mergeBase = "cccccccccccccccccccccccccccccccccccccccc"
	git.head = "cccccccccccccccccccccccccccccccccccccccc"

	e, _ := newTestEngine(t, git, newFakeAPI(), "", fakeMeta{})

	if err := e.Update(context.Background(), ""); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	marker, ok, _ := e.Store.TakeCommitRange(7)
	if !ok || marker != "cccccccccc" {
		t.Errorf("marker = %q, want head abbreviation only", marker)
	}
}

func TestUpdateConflictKeepsMarker(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "pull-request-42-LPS-1234"
	git.mergeBase = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	git.head = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	git.mergeErr = errors.New("CONFLICT (content)")

	e, _ := newTestEngine(t, git, newFakeAPI(), "", fakeMeta{})

	err := e.Update(context.Background(), "")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Update() error = %v, want ErrConflict", err)
	}

	// The marker was written before the merge, so close can still report
	// the pre-update commits.
	if _, ok, _ := e.Store.TakeCommitRange(42); !ok {
		t.Error("commit range should survive a conflicted update")
	}
}

func TestUpdateByNumberFetchesBranchName(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "master"
	git.mergeBase = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	git.head = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	api := newFakeAPI()
	api.prs[42] = samplePR(42)

	e, _ := newTestEngine(t, git, api, "", fakeMeta{})

	if err := e.Update(context.Background(), "42"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if !git.called(fmt.Sprintf("checkout %s pull-request-42-LPS-1234", repoDir)) {
		t.Errorf("expected checkout of derived branch, calls: %v", git.calls)
	}
}

func TestUpdateRefusedOnNonRequestBranch(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "feature/something"

	e, _ := newTestEngine(t, git, newFakeAPI(), "", fakeMeta{})

	err := e.Update(context.Background(), "")
	if !errors.Is(err, naming.ErrNotPullRequestBranch) {
		t.Fatalf("Update() error = %v, want ErrNotPullRequestBranch", err)
	}
}

func workDirFixture(t *testing.T, git *fakeGit) (string, fakeMeta) {
	t.Helper()

	workDir := t.TempDir()
	git.topLevels[repoDir] = repoDir
	git.topLevels[workDir] = workDir
	meta := fakeMeta{symlinks: map[string]string{
		filepath.Join(workDir, ".git", "config"): filepath.Join(repoDir, ".git", "config"),
	}}
	return workDir, meta
}

func TestUpdateInsideWorkDirRefused(t *testing.T) {
	git := newFakeGit()
	workDir, meta := workDirFixture(t, git)
	git.branches[workDir] = "pull-request-42"

	e, _ := newTestEngine(t, git, newFakeAPI(), workDir, meta)
	// Start out inside the work directory.
	e.Dirs = workdir.NewRedirector(workDir, git, meta, nil, workDir)

	err := e.Update(context.Background(), "pull-request-42")
	if !errors.Is(err, ErrInvalidContext) {
		t.Fatalf("Update() error = %v, want ErrInvalidContext", err)
	}
}

func TestUpdateThroughWorkDir(t *testing.T) {
	git := newFakeGit()
	workDir, meta := workDirFixture(t, git)
	git.branches[repoDir] = "pull-request-42"
	git.mergeBase = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	git.head = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	e, _ := newTestEngine(t, git, newFakeAPI(), workDir, meta)

	if err := e.Update(context.Background(), "pull-request-42"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// The work directory was cleaned, used for the merge, then parked on
	// the update branch.
	if !git.called("reset+clean "+workDir) {
		t.Errorf("work dir not cleaned: %v", git.calls)
	}
	if !git.called(fmt.Sprintf("merge %s master", workDir)) {
		t.Errorf("merge did not run in the work dir: %v", git.calls)
	}
	if got := git.branches[workDir]; got != "master" {
		t.Errorf("work dir branch = %q, want master", got)
	}

	// The original checkout had the branch checked out, so it was synced
	// with a hard reset.
	if !git.called("reset+clean " + repoDir) {
		t.Errorf("original dir not synced: %v", git.calls)
	}
	if e.Dirs.ActiveDir() != repoDir {
		t.Errorf("active dir = %q, want original dir", e.Dirs.ActiveDir())
	}
}

func TestContinueUpdateMerge(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "pull-request-42"

	e, _ := newTestEngine(t, git, newFakeAPI(), "", fakeMeta{})

	if err := e.ContinueUpdate(context.Background()); err != nil {
		t.Fatalf("ContinueUpdate() error = %v", err)
	}
	if !git.called("commit " + repoDir) {
		t.Errorf("expected git commit for the merge method, calls: %v", git.calls)
	}
}

func TestContinueUpdateRebase(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "pull-request-42"

	e, _ := newTestEngine(t, git, newFakeAPI(), "", fakeMeta{})
	e.Config.UpdateMethod = "rebase"

	if err := e.ContinueUpdate(context.Background()); err != nil {
		t.Fatalf("ContinueUpdate() error = %v", err)
	}
	if !git.called("rebase --continue " + repoDir) {
		t.Errorf("expected rebase --continue, calls: %v", git.calls)
	}
}

func TestContinueUpdateStillBlocked(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "pull-request-42"
	git.commitErr = errors.New("unresolved conflicts")

	e, _ := newTestEngine(t, git, newFakeAPI(), "", fakeMeta{})

	err := e.ContinueUpdate(context.Background())
	if !errors.Is(err, ErrStillBlocked) {
		t.Fatalf("ContinueUpdate() error = %v, want ErrStillBlocked", err)
	}
}

func TestMergeAutoClosesWithRecordedCommits(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "pull-request-42-LPS-1234"

	api := newFakeAPI()

	e, _ := newTestEngine(t, git, api, "", fakeMeta{})
	if err := e.Store.PutCommitRange(42, "aaaaaaaaaa..bbbbbbbbbb"); err != nil {
		t.Fatal(err)
	}

	if err := e.Merge(context.Background(), ""); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if !git.called(fmt.Sprintf("checkout %s master", repoDir)) {
		t.Errorf("update branch not checked out: %v", git.calls)
	}
	if !git.called(fmt.Sprintf("merge %s pull-request-42-LPS-1234", repoDir)) {
		t.Errorf("branch not merged: %v", git.calls)
	}
	if !git.called("branch -D pull-request-42-LPS-1234") {
		t.Errorf("branch not deleted: %v", git.calls)
	}

	if len(api.closed) != 1 || api.closed[0] != 42 {
		t.Errorf("closed = %v, want [42]", api.closed)
	}
	// With no close comment configured the body is the recorded range alone.
	comments := api.comments[42]
	if len(comments) != 1 || comments[0] != "\n\nOriginal commits: aaaaaaaaaa..bbbbbbbbbb" {
		t.Errorf("comments = %q, want exactly the recorded commit range", comments)
	}

	// The marker is consumed by the close.
	if _, ok, _ := e.Store.TakeCommitRange(42); ok {
		t.Error("commit range should be consumed")
	}
}

func TestMergeWithoutAutoClose(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "pull-request-42"

	api := newFakeAPI()

	e, _ := newTestEngine(t, git, api, "", fakeMeta{})
	e.Config.MergeAutoClose = false

	if err := e.Merge(context.Background(), ""); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(api.closed) != 0 {
		t.Errorf("pull request should stay open, closed = %v", api.closed)
	}
}

func TestCloseCommentFailureStillCloses(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "pull-request-42"

	api := newFakeAPI()
	api.prs[42] = samplePR(42)
	api.commentErr = errors.New("comments disabled")

	e, _ := newTestEngine(t, git, api, "", fakeMeta{})
	e.Config.CloseDefaultComment = "Thanks!"

	if err := e.Close(context.Background(), ""); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(api.closed) != 1 || api.closed[0] != 42 {
		t.Errorf("closed = %v, want [42]", api.closed)
	}
}

func TestCloseDeletesBranch(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "pull-request-42"

	api := newFakeAPI()
	api.prs[42] = samplePR(42)

	e, _ := newTestEngine(t, git, api, "", fakeMeta{})

	if err := e.Close(context.Background(), "done reviewing"); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !git.called("branch -D pull-request-42") {
		t.Errorf("branch not deleted: %v", git.calls)
	}
	if got := git.branches[repoDir]; got != "master" {
		t.Errorf("current branch = %q, want master", got)
	}
	if comments := api.comments[42]; len(comments) != 1 || !strings.HasPrefix(comments[0], "done reviewing") {
		t.Errorf("comments = %v", comments)
	}
}

func TestPullUsesHeadRemote(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "pull-request-42"

	api := newFakeAPI()
	pr := samplePR(42)
	pr.HeadRepoPrivate = true
	pr.HeadRepoSSHURL = "git@github.com:contributor/liferay-portal.git"
	api.prs[42] = pr

	e, _ := newTestEngine(t, git, api, "", fakeMeta{})

	if err := e.Pull(context.Background()); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}

	// Private head repos are pulled over SSH.
	if !git.called("pull git@github.com:contributor/liferay-portal.git LPS-1234-fix") {
		t.Errorf("pull from wrong remote: %v", git.calls)
	}
}

func TestSubmit(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "LPS-9999-feature"
	git.remotes["upstream"] = "liferay/liferay-portal"

	api := newFakeAPI()

	e, _ := newTestEngine(t, git, api, "", fakeMeta{})
	e.Repo = "contributor/liferay-portal"

	pr, err := e.Submit(context.Background(), SubmitOptions{
		Username: "contributor",
		Body:     "please review",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if !git.called("push origin LPS-9999-feature") {
		t.Errorf("branch not pushed: %v", git.calls)
	}
	if api.createdRepo != "liferay/liferay-portal" {
		t.Errorf("created on %q, want the upstream repo", api.createdRepo)
	}

	npr := api.created[0]
	if npr.Head != "contributor:LPS-9999-feature" {
		t.Errorf("head = %q", npr.Head)
	}
	if npr.Base != "master" {
		t.Errorf("base = %q", npr.Base)
	}
	// Title derived from the branch name's issue key.
	if npr.Title != "LPS-9999" {
		t.Errorf("title = %q, want LPS-9999", npr.Title)
	}
	if pr.Number != 100 {
		t.Errorf("returned pull request = %+v", pr)
	}
}

func TestSubmitBareOwnerReviewer(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "LPS-9999-feature"

	api := newFakeAPI()

	e, _ := newTestEngine(t, git, api, "", fakeMeta{})
	e.Repo = "contributor/liferay-portal"

	_, err := e.Submit(context.Background(), SubmitOptions{
		Username: "contributor",
		Reviewer: "brianchandotcom",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if api.createdRepo != "brianchandotcom/liferay-portal" {
		t.Errorf("created on %q, want owner substituted into the repo", api.createdRepo)
	}
}

func TestSubmitNoReviewerFails(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "LPS-9999-feature"

	e, _ := newTestEngine(t, git, newFakeAPI(), "", fakeMeta{})

	if _, err := e.Submit(context.Background(), SubmitOptions{Username: "contributor"}); err == nil {
		t.Fatal("Submit() should fail without a reviewer repo")
	}
}

func TestSubmitEmptyBodyRejectedWhenDisallowed(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "LPS-9999-feature"
	git.remotes["upstream"] = "liferay/liferay-portal"

	e, _ := newTestEngine(t, git, newFakeAPI(), "", fakeMeta{})
	e.Config.AllowEmptyBody = false

	if _, err := e.Submit(context.Background(), SubmitOptions{Username: "contributor"}); err == nil {
		t.Fatal("Submit() should reject an empty body when allow-empty-body is off")
	}
}

func TestSubmitNotifiesMentions(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "LPS-9999-feature"
	git.remotes["upstream"] = "liferay/liferay-portal"

	e, _ := newTestEngine(t, git, newFakeAPI(), "", fakeMeta{})

	var notified []string
	e.Notify = func(_ context.Context, pr *github.PullRequest, logins []string) error {
		notified = logins
		return nil
	}

	_, err := e.Submit(context.Background(), SubmitOptions{
		Username: "contributor",
		Body:     "please review @alice @bob",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(notified) != 2 || notified[0] != "alice" || notified[1] != "bob" {
		t.Errorf("notified = %v, want [alice bob]", notified)
	}
}

func TestListFiltersByUpdateBranch(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "master"

	api := newFakeAPI()
	onMaster := samplePR(1)
	onOther := samplePR(2)
	onOther.BaseRef = "7.4.x"
	api.open = []*github.PullRequest{onMaster, onOther}

	e, out := newTestEngine(t, git, api, "", fakeMeta{})

	if err := e.List(context.Background()); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if !strings.Contains(out.String(), "REQUEST 1") {
		t.Errorf("missing filtered pull request: %q", out.String())
	}
	if strings.Contains(out.String(), "REQUEST 2") {
		t.Errorf("pull request on another base leaked through: %q", out.String())
	}

	// Without the filter both show up.
	e.Config.FilterByUpdateBranch = false
	out.Reset()
	if err := e.List(context.Background()); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !strings.Contains(out.String(), "REQUEST 2") {
		t.Errorf("expected all pull requests: %q", out.String())
	}
}

func TestInfoCountsOpenRequests(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "master"

	api := newFakeAPI()
	api.repos = []github.Repository{
		{Name: "liferay-portal", FullName: "brianchandotcom/liferay-portal", OpenIssues: 3},
		{Name: "liferay-plugins", FullName: "brianchandotcom/liferay-plugins", OpenIssues: 0},
		{Name: "alloy-ui", FullName: "brianchandotcom/alloy-ui", OpenIssues: 2},
	}

	e, out := newTestEngine(t, git, api, "", fakeMeta{})

	if err := e.Info(context.Background(), "brianchandotcom", false); err != nil {
		t.Fatalf("Info() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "liferay-portal: 3") {
		t.Errorf("missing repo count: %q", got)
	}
	if strings.Contains(got, "liferay-plugins") {
		t.Errorf("repo without open requests should be skipped: %q", got)
	}
	if !strings.Contains(got, "Total open pull requests: 5") {
		t.Errorf("missing total: %q", got)
	}
}

func TestRequestURL(t *testing.T) {
	git := newFakeGit()
	git.branches[repoDir] = "pull-request-42"

	api := newFakeAPI()
	api.prs[42] = samplePR(42)

	e, _ := newTestEngine(t, git, api, "", fakeMeta{})

	// From the current branch.
	url, err := e.RequestURL(context.Background(), 0)
	if err != nil {
		t.Fatalf("RequestURL() error = %v", err)
	}
	if url != api.prs[42].URL {
		t.Errorf("url = %q", url)
	}

	// Explicit number.
	api.prs[7] = samplePR(7)
	url, err = e.RequestURL(context.Background(), 7)
	if err != nil {
		t.Fatalf("RequestURL() error = %v", err)
	}
	if url != api.prs[7].URL {
		t.Errorf("url = %q", url)
	}
}
