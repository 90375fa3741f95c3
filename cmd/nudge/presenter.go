// Package main - presenter.go renders the surfaced pull request on the tray
// and retracts it once it no longer needs review.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/reviewnudge/nudge/pkg/ghql"
	"github.com/reviewnudge/nudge/pkg/icon"
	"github.com/reviewnudge/nudge/pkg/label"
	"github.com/reviewnudge/nudge/pkg/review"
	"github.com/reviewnudge/nudge/pkg/safebrowse"
)

// revalidateInterval is how often a displayed pull request is re-checked.
const revalidateInterval = 20 * time.Second

// display is the currently surfaced pull request plus its re-validation
// handle. Teardown runs exactly once and is the only path that clears it.
type display struct {
	pr       ghql.PullRequestSummary
	cancel   context.CancelFunc
	teardown sync.Once
	urgent   bool
}

// present surfaces a pull request: tray label, tooltip, icon, desktop
// notification and the background re-validation loop. It is a no-op when
// another display is already active.
func (app *App) present(ctx context.Context, pr ghql.PullRequestSummary, urgent bool) {
	app.mu.Lock()
	if app.display != nil {
		app.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	d := &display{pr: pr, urgent: urgent, cancel: cancel}
	app.display = d
	app.mu.Unlock()

	app.refreshSurface()

	if err := app.notify("Review Nudge", fmt.Sprintf("#%d: %s", pr.Number, pr.Title)); err != nil {
		slog.Warn("failed to send notification", "number", pr.Number, "error", err)
	}

	go app.revalidate(loopCtx, d)
}

// revalidate re-fetches the displayed pull request every 20 seconds and
// tears the display down once it no longer needs a team review. Fetch
// failures keep the display; the next tick tries again. A panic ends only
// this loop, never the process.
func (app *App) revalidate(ctx context.Context, d *display) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in revalidation loop", "number", d.pr.Number, "panic", r)
		}
	}()

	interval := app.recheckInterval
	if interval <= 0 {
		interval = revalidateInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sess := app.currentSession()
			if sess == nil {
				app.dismiss(d)
				return
			}

			cur, err := app.gh.PullRequest(ctx, sess.Token, app.cfg.Owner, app.cfg.Repo, d.pr.Number)
			if err != nil {
				slog.Warn("revalidation fetch failed", "number", d.pr.Number, "error", err)
				continue
			}

			opts := review.Options{RequireSelfAssignment: app.settingsSnapshot().StrictAssignee}
			if cur == nil || !review.NeedsAttention(*cur, opts) {
				slog.Info("pull request no longer needs review", "number", d.pr.Number)
				app.dismiss(d)
				return
			}
		}
	}
}

// dismiss is the single teardown entry point for a display: it stops the
// re-validation loop, clears the displayed marker so future polls can run,
// and restores the idle surface - atomically and exactly once.
func (app *App) dismiss(d *display) {
	d.teardown.Do(func() {
		d.cancel()

		app.mu.Lock()
		if app.display == d {
			app.display = nil
		}
		app.mu.Unlock()

		app.refreshSurface()
	})
}

// openDisplayed opens the surfaced pull request in the browser and hides
// the display.
func (app *App) openDisplayed(ctx context.Context, d *display) {
	if err := safebrowse.ValidatePullRequestURL(d.pr.URL); err != nil {
		slog.Warn("refusing to open suspicious pull request URL", "url", d.pr.URL, "error", err)
	} else if err := app.openURL(ctx, d.pr.URL); err != nil {
		slog.Warn("failed to open pull request", "url", d.pr.URL, "error", err)
	}
	app.dismiss(d)
}

// refreshSurface redraws the whole tray surface from current state:
// signed-out, idle, or displaying a pull request. Redraws are serialized so
// the ResetMenu/AddMenuItem sequences of concurrent callers cannot
// interleave.
func (app *App) refreshSurface() {
	app.surfaceMu.Lock()
	defer app.surfaceMu.Unlock()

	app.mu.Lock()
	sess := app.session
	d := app.display
	settings := app.settings
	app.mu.Unlock()

	switch {
	case d != nil:
		app.setIcon(iconFor(d))
		app.tray.SetTitle(label.Render(settings.LabelStyle, d.pr.Title, d.pr.Number))
		app.tray.SetTooltip(fmt.Sprintf("%s (%s) needs your review. Thanks ✨", d.pr.Title, d.pr.URL))
	case sess == nil:
		app.setIcon(icon.SignedOut)
		app.tray.SetTitle("Sign in")
		app.tray.SetTooltip("Review Nudge — not signed in")
	default:
		app.setIcon(icon.Idle)
		app.tray.SetTitle("")
		app.tray.SetTooltip(fmt.Sprintf("Review Nudge — watching %s/%s", app.cfg.Owner, app.cfg.Repo))
	}

	app.rebuildMenu()
}

func iconFor(d *display) icon.State {
	if d.urgent {
		return icon.Urgent
	}
	return icon.Nudge
}

func (app *App) setIcon(state icon.State) {
	data, err := icon.Render(state)
	if err != nil {
		slog.Error("failed to render tray icon", "state", state, "error", err)
		return
	}
	app.tray.SetIcon(data)
}

// rebuildMenu recreates the tray menu for the current state.
func (app *App) rebuildMenu() {
	app.mu.Lock()
	sess := app.session
	d := app.display
	settings := app.settings
	app.mu.Unlock()

	ctx := app.ctx
	app.tray.ResetMenu()

	if d != nil {
		item := app.tray.AddMenuItem(
			fmt.Sprintf("#%d  %s", d.pr.Number, truncate(d.pr.Title, 60)),
			"Open in browser and dismiss")
		item.Click(func() { app.openDisplayed(ctx, d) })
		app.tray.AddSeparator()
	}

	if sess == nil {
		signIn := app.tray.AddMenuItem("Sign in to GitHub…", "Authenticate via gh CLI or GITHUB_TOKEN")
		signIn.Click(func() { go app.Login(ctx) })
	} else {
		check := app.tray.AddMenuItem("Check now", "Poll immediately, bypassing the random skip")
		check.Click(func() { go app.poll(ctx, true) })
	}

	app.tray.AddSeparator()

	labelItem := app.tray.AddMenuItem(labelStyleText(settings.LabelStyle), "Switch between abbreviated title and PR number")
	labelItem.Click(func() { app.toggleLabelStyle() })

	strictText := "Require self-assignment: off"
	if settings.StrictAssignee {
		strictText = "Require self-assignment: on"
	}
	strictItem := app.tray.AddMenuItem(strictText, "Only nudge for PRs still assigned to their author")
	strictItem.Click(func() { app.toggleStrictAssignee() })

	app.tray.AddSeparator()

	quit := app.tray.AddMenuItem("Quit", "")
	quit.Click(func() { app.tray.Quit() })
}

func labelStyleText(style label.Style) string {
	if style == label.StyleNumber {
		return "Label style: number"
	}
	return "Label style: short"
}

func (app *App) toggleLabelStyle() {
	app.mu.Lock()
	if app.settings.LabelStyle == label.StyleNumber {
		app.settings.LabelStyle = label.StyleShort
	} else {
		app.settings.LabelStyle = label.StyleNumber
	}
	settings := app.settings
	app.mu.Unlock()

	saveSettings(settings)
	app.refreshSurface()
}

func (app *App) toggleStrictAssignee() {
	app.mu.Lock()
	app.settings.StrictAssignee = !app.settings.StrictAssignee
	settings := app.settings
	app.mu.Unlock()

	saveSettings(settings)
	app.refreshSurface()
}

// settingsSnapshot returns a copy of the current settings.
func (app *App) settingsSnapshot() Settings {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.settings
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
