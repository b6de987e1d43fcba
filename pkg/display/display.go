// Package display renders user-facing terminal output: status lines,
// pull request summaries, and repository listings. Colors follow the
// traditional scheme and can be disabled wholesale.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gitpr/gitpr/pkg/github"
)

// bodyWidth is the wrap column for pull request bodies.
const bodyWidth = 80

// Printer writes formatted output to a terminal.
type Printer struct {
	w       io.Writer
	enabled bool

	status  lipgloss.Style
	success lipgloss.Style
	errText lipgloss.Style
	number  lipgloss.Style
	title   lipgloss.Style
	user    lipgloss.Style
	url     lipgloss.Style
	count   lipgloss.Style
	total   lipgloss.Style
}

// New returns a Printer writing to stdout.
func New(colorEnabled bool) *Printer {
	return NewTo(os.Stdout, colorEnabled)
}

// NewTo returns a Printer writing to w. When colorEnabled is false all
// styles degrade to plain text.
func NewTo(w io.Writer, colorEnabled bool) *Printer {
	p := &Printer{w: w, enabled: colorEnabled}
	if colorEnabled {
		p.status = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))  // blue
		p.success = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
		p.errText = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
		p.number = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
		p.title = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
		p.user = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
		p.url = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // cyan
		p.count = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
		p.total = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	}
	return p
}

func (p *Printer) render(style lipgloss.Style, text string) string {
	if !p.enabled {
		return text
	}
	return style.Render(text)
}

// Statusf prints a progress line.
func (p *Printer) Statusf(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.render(p.status, fmt.Sprintf(format, args...)))
}

// Successf prints a completion line.
func (p *Printer) Successf(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.render(p.success, fmt.Sprintf(format, args...)))
}

// Errorf prints an error line.
func (p *Printer) Errorf(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.render(p.errText, fmt.Sprintf(format, args...)))
}

// Println prints a plain line.
func (p *Printer) Println(args ...interface{}) {
	fmt.Fprintln(p.w, args...)
}

// PullRequestMinimal prints the one-line summary of a pull request.
func (p *Printer) PullRequestMinimal(pr *github.PullRequest) {
	fmt.Fprintf(p.w, "%s - %s by %s\n",
		p.render(p.number, fmt.Sprintf("REQUEST %d", pr.Number)),
		p.render(p.title, pr.Title),
		p.render(p.user, pr.Author))
}

// PullRequest prints the full summary of a pull request: the one-line
// header, the URL, and the body wrapped to 80 columns.
func (p *Printer) PullRequest(pr *github.PullRequest) {
	p.PullRequestMinimal(pr)
	fmt.Fprintf(p.w, "\t%s\n", p.render(p.url, pr.URL))

	if body := strings.TrimSpace(pr.Body); body != "" {
		fmt.Fprintln(p.w, indentWrap(body, "\t", bodyWidth))
	}

	fmt.Fprintln(p.w)
}

// CurrentBranch prints the checked-out branch name.
func (p *Printer) CurrentBranch(branch string) {
	fmt.Fprintf(p.w, "Current branch: %s\n", branch)
}

// RepoCount prints a repository line of the info listing.
func (p *Printer) RepoCount(repo string, open int) {
	fmt.Fprintf(p.w, "%s: %s\n", repo, p.render(p.count, fmt.Sprintf("%d", open)))
}

// TotalCount prints the closing total of the info listing.
func (p *Printer) TotalCount(total int) {
	fmt.Fprintf(p.w, "%s: %s\n",
		p.render(p.total, "Total open pull requests"),
		p.render(p.count, fmt.Sprintf("%d", total)))
}

// indentWrap greedily wraps text to width columns, prefixing every line
// with indent. Words longer than a line are emitted unbroken.
func indentWrap(text, indent string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		if i == 0 {
			b.WriteString(indent)
			b.WriteString(word)
			lineLen = len(indent) + len(word)
			continue
		}
		if lineLen+1+len(word) > width {
			b.WriteString("\n")
			b.WriteString(indent)
			b.WriteString(word)
			lineLen = len(indent) + len(word)
			continue
		}
		b.WriteString(" ")
		b.WriteString(word)
		lineLen += 1 + len(word)
	}
	return b.String()
}
