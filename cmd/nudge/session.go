// Package main - session.go holds the GitHub session: credential acquisition
// and the authenticated account identity.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/reviewnudge/nudge/pkg/safebrowse"
)

const (
	maxRetries    = 5
	maxRetryDelay = 30 * time.Second

	signInHelpURL = "https://cli.github.com/manual/gh_auth_login"
)

// githubTokenRegex validates GitHub token formats: classic 40-hex tokens,
// prefixed tokens (ghp_/ghs_/ghr_/gho_/ghu_) and fine-grained PATs.
var githubTokenRegex = regexp.MustCompile(`^[a-f0-9]{40}$|^gh[psoru]_[A-Za-z0-9]{36,251}$|^github_pat_[A-Za-z0-9]{82}$`)

// Session is the held credential plus the account it belongs to. It lives in
// process memory only and is replaced wholly on re-login.
type Session struct {
	Token string
	Login string
}

// validateGitHubToken performs basic shape validation on a token.
func validateGitHubToken(token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if !githubTokenRegex.MatchString(token) {
		return errors.New("token does not match expected GitHub token format")
	}
	return nil
}

// acquireToken retrieves a GitHub token from the GITHUB_TOKEN environment
// variable or the gh CLI. It never prompts.
func acquireToken(ctx context.Context) (string, error) {
	if token := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); token != "" {
		if err := validateGitHubToken(token); err != nil {
			return "", fmt.Errorf("GITHUB_TOKEN: %w", err)
		}
		slog.Info("using GitHub token from GITHUB_TOKEN environment variable")
		return token, nil
	}

	ghPath, err := exec.LookPath("gh")
	if err != nil {
		return "", errors.New("gh CLI not found in PATH and GITHUB_TOKEN not set")
	}

	cmd := exec.CommandContext(ctx, ghPath, "auth", "token")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("exec 'gh auth token': %w", err)
	}
	token := strings.TrimSpace(string(output))
	if err := validateGitHubToken(token); err != nil {
		return "", fmt.Errorf("invalid token from gh CLI: %w", err)
	}
	slog.Info("obtained GitHub token from gh CLI")
	return token, nil
}

// resolveIdentity looks up the account login for the token. GitHub can be
// flaky right after wake-up, so this retries with backoff; authentication
// rejections are unrecoverable.
func resolveIdentity(ctx context.Context, token string) (string, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	var user *github.User
	err := retry.Do(func() error {
		var resp *github.Response
		var retryErr error
		user, resp, retryErr = client.Users.Get(ctx, "")
		if retryErr != nil {
			if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
				return retry.Unrecoverable(fmt.Errorf("github authentication failed: %w", retryErr))
			}
			return retryErr
		}
		return nil
	},
		retry.Attempts(maxRetries),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("github Users.Get retry", "attempt", n+1, "max", maxRetries, "error", err)
		}),
		retry.Context(ctx),
	)
	if err != nil {
		return "", err
	}
	if user == nil || user.GetLogin() == "" {
		return "", errors.New("github returned no user identity")
	}
	return user.GetLogin(), nil
}

// establishSession acquires a token and resolves its identity.
func establishSession(ctx context.Context) (*Session, error) {
	token, err := acquireToken(ctx)
	if err != nil {
		return nil, err
	}
	login, err := resolveIdentity(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Login: login}, nil
}

// RestoreSilently tries to reuse existing credentials at startup without any
// prompt. When nothing is available the app stays in the signed-out state.
func (app *App) RestoreSilently(ctx context.Context) bool {
	sess, err := establishSession(ctx)
	if err != nil {
		slog.Info("no session restored", "error", err)
		return false
	}
	app.setSession(sess)
	slog.Info("session restored", "login", sess.Login)
	return true
}

// Login obtains a session, prompting the user when silent acquisition fails.
// Idempotent: when a session is already held it is refreshed and a poll runs
// anyway. On success it triggers an immediate forced poll.
func (app *App) Login(ctx context.Context) {
	sess, err := establishSession(ctx)
	if err != nil {
		slog.Warn("login failed", "error", err)
		app.promptSignIn(ctx)
		return
	}

	app.setSession(sess)
	slog.Info("signed in", "login", sess.Login)
	app.refreshSurface()
	app.poll(ctx, true)
}

// promptSignIn tells the user how to create a credential: a desktop
// notification plus the gh auth documentation in the browser.
func (app *App) promptSignIn(ctx context.Context) {
	if err := app.notify("Review Nudge", "Sign in required: run 'gh auth login' or set GITHUB_TOKEN, then choose Sign in again."); err != nil {
		slog.Warn("failed to send sign-in notification", "error", err)
	}
	if err := app.openURL(ctx, signInHelpURL); err != nil {
		slog.Warn("failed to open sign-in help", "error", err)
	}
}

func (app *App) setSession(sess *Session) {
	app.mu.Lock()
	app.session = sess
	app.mu.Unlock()
}

func (app *App) currentSession() *Session {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.session
}

// openHelp is the default URL opener; tests replace App.openURL.
func openHelp(ctx context.Context, rawURL string) error {
	return safebrowse.Open(ctx, rawURL)
}
