// Package safebrowse validates pull request URLs and opens them in the
// system's default browser. Validation is identical on every platform so a
// hostile title or API response can never smuggle shell metacharacters into
// the open command.
package safebrowse

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

const maxURLLength = 2048

// OpenPullRequest validates rawURL as a GitHub pull request URL and opens it.
func OpenPullRequest(ctx context.Context, rawURL string) error {
	if err := ValidatePullRequestURL(rawURL); err != nil {
		return err
	}
	return open(ctx, rawURL)
}

// Open validates rawURL as a plain https URL and opens it.
func Open(ctx context.Context, rawURL string) error {
	if err := validate(rawURL); err != nil {
		return err
	}
	return open(ctx, rawURL)
}

// ValidatePullRequestURL checks that rawURL matches
// https://github.com/{owner}/{repo}/pull/{number} with no query or fragment.
func ValidatePullRequestURL(rawURL string) error {
	if err := validate(rawURL); err != nil {
		return err
	}

	u, _ := url.Parse(rawURL) // validate already parsed it
	if u.Host != "github.com" {
		return fmt.Errorf("host %q is not github.com", u.Host)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return errors.New("query parameters and fragments are not allowed")
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 4 || parts[2] != "pull" {
		return errors.New("path must match /{owner}/{repo}/pull/{number}")
	}
	number := parts[3]
	if number == "" || number[0] < '1' || number[0] > '9' {
		return errors.New("pull request number must start with 1-9")
	}
	for _, c := range number {
		if c < '0' || c > '9' {
			return errors.New("pull request number must be digits only")
		}
	}
	return nil
}

// validate performs the shared structural checks.
func validate(rawURL string) error {
	if rawURL == "" {
		return errors.New("URL cannot be empty")
	}
	if len(rawURL) > maxURLLength {
		return fmt.Errorf("URL exceeds maximum length of %d", maxURLLength)
	}
	for i, r := range rawURL {
		if r < 0x20 || r == 0x7F || r > 127 {
			return fmt.Errorf("invalid character at position %d", i)
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("scheme %q is not https", u.Scheme)
	}
	if u.User != nil {
		return errors.New("URLs with user info are not allowed")
	}
	if u.Host == "" {
		return errors.New("URL has no host")
	}
	return nil
}

// open launches the platform handler without shell interpretation. The
// browser process is fire-and-forget; the OS owns its lifecycle.
func open(ctx context.Context, rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "/usr/bin/open", "-u", rawURL)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32.exe", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", rawURL)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open url: %w", err)
	}
	return nil
}
