// Package notify emails the users mentioned in a pull request body.
// Mentions are @login tokens; each login resolves to an email address
// through the GitHub profile, and the mail goes out over SMTP with the
// credentials stored (base64 obfuscated) in git config.
package notify

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/smtp"
	"regexp"
	"strings"

	"github.com/gitpr/gitpr/pkg/config"
	"github.com/gitpr/gitpr/pkg/log"
)

var mentionRe = regexp.MustCompile(`@(\w+)`)

// Mentions returns the logins mentioned as @login tokens in body, in
// order of first appearance, without duplicates.
func Mentions(body string) []string {
	var logins []string
	seen := map[string]bool{}
	for _, m := range mentionRe.FindAllStringSubmatch(body, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		logins = append(logins, m[1])
	}
	return logins
}

// DecodeCredentials splits the base64-encoded "user;password" stored in
// the email-credentials git config key.
func DecodeCredentials(encoded string) (user, password string, err error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("invalid email credentials: %w", err)
	}

	user, password, ok := strings.Cut(string(raw), ";")
	if !ok {
		return "", "", fmt.Errorf("invalid email credentials: expected user;password")
	}
	return user, password, nil
}

// EncodeCredentials is the inverse of DecodeCredentials.
func EncodeCredentials(user, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ";" + password))
}

// Notification describes the pull request being announced.
type Notification struct {
	RepoName     string
	Title        string
	Body         string
	URL          string
	SenderName   string
	SenderEmail  string
	ReviewerName string
}

// Subject returns the mail subject line.
func (n Notification) Subject() string {
	return fmt.Sprintf("[%s] %s", n.RepoName, n.Title)
}

// Message returns the mail body.
func (n Notification) Message() string {
	return fmt.Sprintf(
		"%s has just sent the following pull request to %s.\n\n%s\n\n---\nYou can view this pull request directly on GitHub:\n%s",
		n.SenderName, n.ReviewerName, n.Body, n.URL)
}

// Mailer sends notification mails. LookupEmail resolves a GitHub login to
// an email address; logins without a public email are skipped with a
// warning.
type Mailer struct {
	Config      config.MailConfig
	LookupEmail func(ctx context.Context, login string) (string, error)
}

// Send mails the notification to the given logins and returns the
// addresses it was delivered to.
func (m *Mailer) Send(ctx context.Context, n Notification, logins []string) ([]string, error) {
	user, password, err := DecodeCredentials(m.Config.Credentials)
	if err != nil {
		return nil, err
	}

	var addresses []string
	for _, login := range logins {
		email, err := m.LookupEmail(ctx, login)
		if err != nil || email == "" {
			log.Warn("couldn't find email address", "user", login)
			continue
		}
		addresses = append(addresses, email)
	}
	if len(addresses) == 0 {
		return nil, nil
	}

	msg := buildMessage(n, addresses)

	if err := m.sendMail(n.SenderEmail, addresses, msg, user, password); err != nil {
		return nil, fmt.Errorf("failed to send notification: %w", err)
	}

	return addresses, nil
}

// buildMessage renders the RFC 5322 message.
func buildMessage(n Notification, addresses []string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.SenderEmail)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(addresses, ","))
	fmt.Fprintf(&b, "Subject: %s\r\n", n.Subject())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(n.Message())
	return []byte(b.String())
}

func (m *Mailer) sendMail(from string, to []string, msg []byte, user, password string) error {
	addr := net.JoinHostPort(m.Config.Server, fmt.Sprintf("%d", m.Config.Port))

	var client *smtp.Client
	if m.Config.UseSSL {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.Config.Server})
		if err != nil {
			return err
		}
		client, err = smtp.NewClient(conn, m.Config.Server)
		if err != nil {
			return err
		}
	} else {
		var err error
		client, err = smtp.Dial(addr)
		if err != nil {
			return err
		}
		if m.Config.UseTLS {
			if err := client.StartTLS(&tls.Config{ServerName: m.Config.Server}); err != nil {
				return err
			}
		}
	}
	defer client.Close()

	auth := smtp.PlainAuth("", user, password, m.Config.Server)
	if err := client.Auth(auth); err != nil {
		return err
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
