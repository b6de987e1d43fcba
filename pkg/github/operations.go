package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"
)

// PullRequest fetches one pull request by number.
func (c *Client) PullRequest(ctx context.Context, repo string, number int) (*PullRequest, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	pr, _, err := c.GitHubClient().PullRequests.Get(ctx, owner, name, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull request %s#%d: %w", repo, number, err)
	}

	return convertPullRequest(pr), nil
}

// OpenPullRequests lists all open pull requests, newest first. When baseRef
// is non-empty only pull requests targeting that base branch are returned.
func (c *Client) OpenPullRequests(ctx context.Context, repo, baseRef string) ([]*PullRequest, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	opts := &github.PullRequestListOptions{
		State:       "open",
		Base:        baseRef,
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*PullRequest
	for {
		prs, resp, err := c.GitHubClient().PullRequests.List(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests for %s: %w", repo, err)
		}

		for _, pr := range prs {
			all = append(all, convertPullRequest(pr))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// CreatePullRequest opens a new pull request and returns it.
func (c *Client) CreatePullRequest(ctx context.Context, repo string, npr NewPullRequest) (*PullRequest, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	pr, _, err := c.GitHubClient().PullRequests.Create(ctx, owner, name, &github.NewPullRequest{
		Title: github.Ptr(npr.Title),
		Head:  github.Ptr(npr.Head),
		Base:  github.Ptr(npr.Base),
		Body:  github.Ptr(npr.Body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request on %s: %w", repo, err)
	}

	return convertPullRequest(pr), nil
}

// ClosePullRequest closes a pull request without merging it.
func (c *Client) ClosePullRequest(ctx context.Context, repo string, number int) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	_, _, err = c.GitHubClient().PullRequests.Edit(ctx, owner, name, number, &github.PullRequest{
		State: github.Ptr("closed"),
	})
	if err != nil {
		return fmt.Errorf("failed to close pull request %s#%d: %w", repo, number, err)
	}
	return nil
}

// PostComment posts an issue comment on a pull request.
func (c *Client) PostComment(ctx context.Context, repo string, number int, body string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	_, _, err = c.GitHubClient().Issues.CreateComment(ctx, owner, name, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("failed to comment on %s#%d: %w", repo, number, err)
	}
	return nil
}

// Repositories lists the repositories owned by a user.
func (c *Client) Repositories(ctx context.Context, user string) ([]Repository, error) {
	opts := &github.RepositoryListByUserOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []Repository
	for {
		repos, resp, err := c.GitHubClient().Repositories.ListByUser(ctx, user, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories for %s: %w", user, err)
		}

		for _, r := range repos {
			all = append(all, convertRepository(r))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// Forks lists the forks of a repository.
func (c *Client) Forks(ctx context.Context, repo string) ([]Repository, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	opts := &github.RepositoryListForksOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []Repository
	for {
		forks, resp, err := c.GitHubClient().Repositories.ListForks(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list forks of %s: %w", repo, err)
		}

		for _, r := range forks {
			all = append(all, convertRepository(r))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// User fetches a user's public profile.
func (c *Client) User(ctx context.Context, login string) (*User, error) {
	u, _, err := c.GitHubClient().Users.Get(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", login, err)
	}

	return &User{
		Login: u.GetLogin(),
		Name:  u.GetName(),
		Email: u.GetEmail(),
	}, nil
}

// convertPullRequest converts a github.PullRequest to our PullRequest type
func convertPullRequest(pr *github.PullRequest) *PullRequest {
	out := &PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		State:     pr.GetState(),
		URL:       pr.GetHTMLURL(),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
	}

	if user := pr.GetUser(); user != nil {
		out.Author = user.GetLogin()
	}

	if base := pr.GetBase(); base != nil {
		out.BaseRef = base.GetRef()
	}

	if head := pr.GetHead(); head != nil {
		out.HeadRef = head.GetRef()
		out.HeadSHA = head.GetSHA()
		// The head repo is nil when the fork was deleted after the pull
		// request was opened.
		if repo := head.GetRepo(); repo != nil {
			out.HeadRepoName = repo.GetFullName()
			out.HeadRepoURL = repo.GetCloneURL()
			out.HeadRepoSSHURL = repo.GetSSHURL()
			out.HeadRepoPrivate = repo.GetPrivate()
		}
	}

	return out
}

// convertRepository converts a github.Repository to our Repository type
func convertRepository(r *github.Repository) Repository {
	out := Repository{
		FullName:   r.GetFullName(),
		Name:       r.GetName(),
		CloneURL:   r.GetCloneURL(),
		SSHURL:     r.GetSSHURL(),
		Private:    r.GetPrivate(),
		Fork:       r.GetFork(),
		OpenIssues: r.GetOpenIssuesCount(),
	}
	if owner := r.GetOwner(); owner != nil {
		out.Owner = owner.GetLogin()
	}
	return out
}
