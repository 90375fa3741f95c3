// Package main - poll.go fetches open pull requests and decides whether to
// surface one.
package main

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/reviewnudge/nudge/pkg/ghql"
	"github.com/reviewnudge/nudge/pkg/review"
)

const (
	// freshWindow bounds how old a pull request may be and still get nudged.
	freshWindow = 4 * 24 * time.Hour

	// nudgeDivisor feeds the probabilistic gate: chance = ceil(k/7).
	// Since chance >= 1 for any non-empty candidate set and the draw is in
	// [0,1), the gate effectively always passes; it exists for fidelity with
	// the historical behavior and kicks in only for a fractional model.
	nudgeDivisor = 7
)

// prClient is the part of the GraphQL client the poller needs; tests
// substitute a fake.
type prClient interface {
	ListOpenPullRequests(ctx context.Context, token, owner, repo string) ([]ghql.PullRequestSummary, error)
	PullRequest(ctx context.Context, token, owner, repo string, number int) (*ghql.PullRequestSummary, error)
}

// pollLoop runs poll on the configured interval until ctx is cancelled.
// A panic in a cycle is logged and ends only the loop, never the process.
func (app *App) pollLoop(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in poll loop", "panic", r)
		}
	}()

	ticker := time.NewTicker(app.cfg.PollInterval)
	defer ticker.Stop()

	app.poll(ctx, false)

	for {
		select {
		case <-ctx.Done():
			slog.Info("poll loop stopping")
			return
		case <-ticker.C:
			app.poll(ctx, false)
		}
	}
}

// poll fetches the newest open pull requests and, unless gated away,
// surfaces one chosen uniformly at random. A forced poll (login, return
// from long absence, manual check) bypasses the probabilistic gate.
//
// It is a strict no-op while no session is held or a display is active:
// at most one pull request is ever surfaced at a time.
func (app *App) poll(ctx context.Context, forced bool) {
	app.mu.Lock()
	sess := app.session
	busy := app.display != nil
	app.mu.Unlock()

	if sess == nil {
		slog.Debug("poll skipped: not signed in")
		return
	}
	if busy {
		slog.Debug("poll skipped: a pull request is already displayed")
		return
	}

	prs, err := app.gh.ListOpenPullRequests(ctx, sess.Token, app.cfg.Owner, app.cfg.Repo)
	if err != nil {
		// Swallowed: the next cycle retries naturally.
		slog.Warn("poll fetch failed", "error", err)
		return
	}

	candidates := app.selectCandidates(prs, sess.Login)
	if len(candidates) == 0 {
		slog.Debug("no review candidates", "fetched", len(prs))
		return
	}

	if !forced {
		chance := math.Ceil(float64(len(candidates)) / nudgeDivisor)
		if draw := app.drawFloat(); draw > chance {
			slog.Debug("nudge gated away", "candidates", len(candidates), "draw", draw)
			return
		}
	}

	pick := candidates[app.drawIndex(len(candidates))]
	slog.Info("nudging",
		"number", pick.Number,
		"author", pick.Author,
		"candidates", len(candidates),
		"forced", forced)
	app.present(ctx, pick, forced)
}

// drawFloat returns a uniform [0,1) draw. The RNG is shared by the poll,
// absence and sleep goroutines and is not safe for concurrent use, so all
// draws go through the App mutex.
func (app *App) drawFloat() float64 {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.rng.Float64()
}

// drawIndex returns a uniform draw from [0,n).
func (app *App) drawIndex(n int) int {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.rng.IntN(n)
}

// selectCandidates filters a fetched batch down to pull requests worth
// nudging about: needs a team review, not authored by the signed-in user,
// and created within the freshness window. The newest-first ordering is
// cosmetic; selection is uniform over the set.
func (app *App) selectCandidates(prs []ghql.PullRequestSummary, self string) []ghql.PullRequestSummary {
	opts := review.Options{RequireSelfAssignment: app.settingsSnapshot().StrictAssignee}
	cutoff := time.Now().Add(-freshWindow)

	var candidates []ghql.PullRequestSummary
	for _, pr := range prs {
		if !review.NeedsAttention(pr, opts) {
			continue
		}
		if pr.Author == self {
			continue
		}
		if pr.CreatedAt.Before(cutoff) {
			continue
		}
		candidates = append(candidates, pr)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	return candidates
}
