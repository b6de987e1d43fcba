package github

import "time"

// PullRequest contains the pull request fields the lifecycle needs.
type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	State     string    `json:"state"`
	URL       string    `json:"url"`
	BaseRef   string    `json:"base_ref"`
	HeadRef   string    `json:"head_ref"`
	HeadSHA   string    `json:"head_sha"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Head repository coordinates. The head repo can differ from the base
	// repo (a contributor's fork) and can be private.
	HeadRepoName    string `json:"head_repo_name"`
	HeadRepoURL     string `json:"head_repo_url"`
	HeadRepoSSHURL  string `json:"head_repo_ssh_url"`
	HeadRepoPrivate bool   `json:"head_repo_private"`
}

// HeadRemoteURL returns the URL to fetch the head branch from. Private head
// repositories are only reachable over SSH.
func (pr *PullRequest) HeadRemoteURL() string {
	if pr.HeadRepoPrivate && pr.HeadRepoSSHURL != "" {
		return pr.HeadRepoSSHURL
	}
	return pr.HeadRepoURL
}

// NewPullRequest contains the fields for opening a pull request.
type NewPullRequest struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body"`
}

// Repository is a remote repository summary.
type Repository struct {
	FullName string `json:"full_name"`
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	CloneURL string `json:"clone_url"`
	SSHURL   string `json:"ssh_url"`
	Private  bool   `json:"private"`
	Fork     bool   `json:"fork"`

	// OpenIssues counts open issues and pull requests together, the way
	// the API reports it.
	OpenIssues int `json:"open_issues"`
}

// User is a GitHub account profile.
type User struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
