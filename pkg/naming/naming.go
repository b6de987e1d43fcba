// Package naming derives local branch names from pull requests and recovers
// request numbers from branch names. The scheme is the only link between a
// checked-out branch and its remote request, so both directions live here.
//
// A branch name has the shape
//
//	{prefix}-{number}[-{ISSUEKEY}][-sup]
//
// where the issue key is the first token of three or more uppercase letters
// followed by a hyphen and digits found in the head ref (e.g. ABC-100), and
// the "-sup" suffix marks requests whose title carries the technical-support
// tag.
package naming

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultPrefix is used when no local branch prefix is configured. Branch
// names starting with it are always recognized, even under a custom prefix.
const DefaultPrefix = "pull-request"

// SupportMarker in a request title maps to the "-sup" branch suffix.
const SupportMarker = "[TECHNICAL SUPPORT]"

// ErrNotPullRequestBranch is returned when a branch name does not follow the
// pull request naming scheme and no request number can be recovered from it.
var ErrNotPullRequestBranch = errors.New("not a pull request branch")

var issueKeyRe = regexp.MustCompile(`[A-Z]{3,}-\d+`)

// Resolver derives branch names and titles using the configured prefix and
// title tag delimiters. The zero value uses DefaultPrefix and "[" / "]".
type Resolver struct {
	Prefix    string
	TagPrefix string
	TagSuffix string
}

func (r Resolver) prefix() string {
	if r.Prefix == "" {
		return DefaultPrefix
	}
	return r.Prefix
}

func (r Resolver) tagPrefix() string {
	if r.TagPrefix == "" {
		return "["
	}
	return r.TagPrefix
}

func (r Resolver) tagSuffix() string {
	if r.TagSuffix == "" {
		return "]"
	}
	return r.TagSuffix
}

// BranchName returns the local branch name a request should be fetched into.
// It is a pure function of the request number, head ref and title.
func (r Resolver) BranchName(number int, headRef, title string) string {
	name := fmt.Sprintf("%s-%d", r.prefix(), number)

	if key := issueKeyRe.FindString(headRef); key != "" {
		name += "-" + key
	}
	if strings.Contains(title, SupportMarker) {
		name += "-sup"
	}
	return name
}

// RequestID recovers the request number encoded in a branch name. It accepts
// both the configured prefix and DefaultPrefix, so branches fetched under a
// previous prefix remain recognizable. Returns ErrNotPullRequestBranch when
// the name does not match.
func (r Resolver) RequestID(branch string) (int, error) {
	re := regexp.MustCompile(`^(?:` + regexp.QuoteMeta(DefaultPrefix) + `|` + regexp.QuoteMeta(r.prefix()) + `)-(\d+)`)

	m := re.FindStringSubmatch(branch)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrNotPullRequestBranch, branch)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotPullRequestBranch, branch)
	}
	return n, nil
}

// Title builds a pull request title for a branch. An explicit title wins;
// otherwise the issue key embedded in the branch name is used, falling back
// to the branch name itself. A "-sup" branch gets the support marker
// appended, and each tag is appended wrapped in the configured delimiters.
func (r Resolver) Title(branch, explicit string, tags []string) string {
	title := explicit

	if title == "" {
		title = branch
		if key := issueKeyRe.FindString(branch); key != "" {
			title = key
		}
		if strings.HasSuffix(branch, "-sup") {
			title += " " + SupportMarker
		}
	}

	for _, tag := range tags {
		title += " " + r.tagPrefix() + tag + r.tagSuffix()
	}
	return title
}
