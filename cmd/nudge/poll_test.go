package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewnudge/nudge/pkg/ghql"
	"github.com/reviewnudge/nudge/pkg/review"
)

// fakeGitHub is an in-memory prClient.
type fakeGitHub struct {
	mu          sync.Mutex
	prs         []ghql.PullRequestSummary
	listErr     error
	single      map[int]*ghql.PullRequestSummary
	singleErr   error
	listCalls   int
	singleCalls int
}

func (f *fakeGitHub) ListOpenPullRequests(_ context.Context, _, _, _ string) ([]ghql.PullRequestSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.prs, f.listErr
}

func (f *fakeGitHub) PullRequest(_ context.Context, _, _, _ string, number int) (*ghql.PullRequestSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.singleCalls++
	if f.singleErr != nil {
		return nil, f.singleErr
	}
	return f.single[number], nil
}

func (f *fakeGitHub) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeGitHub) singleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.singleCalls
}

// freshPR builds a pull request that passes every candidate filter.
func freshPR(number int, author string) ghql.PullRequestSummary {
	return ghql.PullRequestSummary{
		Number:            number,
		Title:             fmt.Sprintf("Fix widget rendering %d", number),
		URL:               fmt.Sprintf("https://github.com/acme/widgets/pull/%d", number),
		Author:            author,
		AuthorAssociation: review.MemberAssociation,
		Assignees:         []string{author},
		CreatedAt:         time.Now().Add(-time.Hour),
	}
}

func newTestApp(t *testing.T, gh prClient) (*App, *MockTray) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tray := &MockTray{}
	app := &App{
		tray:            tray,
		gh:              gh,
		rng:             rand.New(rand.NewPCG(1, 2)),
		ctx:             ctx,
		cfg:             Config{Owner: "acme", Repo: "widgets", PollInterval: time.Minute},
		recheckInterval: time.Hour,
		settings:        defaultSettings(),
		notify:          func(string, string) error { return nil },
		openURL:         func(context.Context, string) error { return nil },
		session:         &Session{Token: "tok", Login: "me"},
	}
	return app, tray
}

func (app *App) currentDisplay() *display {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.display
}

func TestPollForcedDisplaysCandidate(t *testing.T) {
	gh := &fakeGitHub{prs: []ghql.PullRequestSummary{freshPR(42, "alice")}}
	app, tray := newTestApp(t, gh)

	app.poll(app.ctx, true)

	require.NotNil(t, app.currentDisplay())
	assert.Equal(t, 42, app.currentDisplay().pr.Number)
	assert.Equal(t, 1, gh.listCount())
	assert.NotEmpty(t, tray.Title())
	assert.Contains(t, tray.Tooltip(), "needs your review")
}

// The gate compares a [0,1) draw against ceil(k/7), which is at least 1 for
// any non-empty candidate set, so an unforced poll never skips.
func TestPollGatePassesForAnyCandidateCount(t *testing.T) {
	for _, count := range []int{1, 3, 7, 14} {
		for seed := uint64(0); seed < 25; seed++ {
			var prs []ghql.PullRequestSummary
			for i := 0; i < count; i++ {
				prs = append(prs, freshPR(100+i, "alice"))
			}
			gh := &fakeGitHub{prs: prs}
			app, _ := newTestApp(t, gh)
			app.rng = rand.New(rand.NewPCG(seed, seed+1))

			app.poll(app.ctx, false)

			require.NotNil(t, app.currentDisplay(),
				"candidates=%d seed=%d: unforced poll skipped", count, seed)
		}
	}
}

func TestPollNoOpWithoutSession(t *testing.T) {
	gh := &fakeGitHub{prs: []ghql.PullRequestSummary{freshPR(1, "alice")}}
	app, _ := newTestApp(t, gh)
	app.setSession(nil)

	app.poll(app.ctx, true)

	assert.Nil(t, app.currentDisplay())
	assert.Equal(t, 0, gh.listCount(), "signed-out poll must not hit the network")
}

func TestPollNoOpWhileDisplayed(t *testing.T) {
	gh := &fakeGitHub{prs: []ghql.PullRequestSummary{freshPR(1, "alice")}}
	app, _ := newTestApp(t, gh)

	app.poll(app.ctx, true)
	require.NotNil(t, app.currentDisplay())
	first := app.currentDisplay()

	app.poll(app.ctx, true)

	assert.Same(t, first, app.currentDisplay())
	assert.Equal(t, 1, gh.listCount(), "poll with active display must not hit the network")
}

func TestPollFetchErrorSwallowed(t *testing.T) {
	gh := &fakeGitHub{listErr: errors.New("boom")}
	app, _ := newTestApp(t, gh)

	app.poll(app.ctx, true)

	assert.Nil(t, app.currentDisplay())
}

func TestPollNoCandidates(t *testing.T) {
	stale := freshPR(9, "alice")
	stale.CreatedAt = time.Now().Add(-10 * 24 * time.Hour)
	gh := &fakeGitHub{prs: []ghql.PullRequestSummary{stale}}
	app, _ := newTestApp(t, gh)

	app.poll(app.ctx, true)

	assert.Nil(t, app.currentDisplay())
}

func TestSelectCandidates(t *testing.T) {
	app, _ := newTestApp(t, &fakeGitHub{})

	mine := freshPR(1, "me")
	fine := freshPR(2, "alice")
	stale := freshPR(3, "bob")
	stale.CreatedAt = time.Now().Add(-5 * 24 * time.Hour)
	outsider := freshPR(4, "carol")
	outsider.AuthorAssociation = "CONTRIBUTOR"
	draft := freshPR(5, "dave")
	draft.IsDraft = true
	requested := freshPR(6, "erin")
	requested.ReviewRequestCount = 1
	reviewed := freshPR(7, "frank")
	reviewed.ReviewCount = 1
	unassigned := freshPR(8, "grace")
	unassigned.Assignees = nil

	candidates := app.selectCandidates([]ghql.PullRequestSummary{
		mine, fine, stale, outsider, draft, requested, reviewed, unassigned,
	}, "me")

	require.Len(t, candidates, 1)
	assert.Equal(t, 2, candidates[0].Number)
}

func TestSelectCandidatesRelaxedAssignee(t *testing.T) {
	app, _ := newTestApp(t, &fakeGitHub{})
	app.settings.StrictAssignee = false

	unassigned := freshPR(8, "grace")
	unassigned.Assignees = nil

	candidates := app.selectCandidates([]ghql.PullRequestSummary{unassigned}, "me")
	require.Len(t, candidates, 1)
}

func TestDrawIndexRange(t *testing.T) {
	app, _ := newTestApp(t, &fakeGitHub{})
	for range 100 {
		i := app.drawIndex(5)
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, 5)
	}
	for range 100 {
		f := app.drawFloat()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
}

// The RNG is shared across the poll, absence and sleep goroutines; drive it
// from several at once so the race detector can vouch for the locked draws.
func TestConcurrentPollsAndDismissals(t *testing.T) {
	gh := &fakeGitHub{prs: []ghql.PullRequestSummary{
		freshPR(1, "alice"),
		freshPR(2, "bob"),
		freshPR(3, "carol"),
	}}
	app, _ := newTestApp(t, gh)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				app.poll(app.ctx, false)
				if d := app.currentDisplay(); d != nil {
					app.dismiss(d)
				}
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, gh.listCount(), 1)
	if d := app.currentDisplay(); d != nil {
		app.dismiss(d)
	}
	assert.Nil(t, app.currentDisplay())
}

func TestSelectCandidatesNewestFirst(t *testing.T) {
	app, _ := newTestApp(t, &fakeGitHub{})

	older := freshPR(1, "alice")
	older.CreatedAt = time.Now().Add(-3 * time.Hour)
	newer := freshPR(2, "bob")
	newer.CreatedAt = time.Now().Add(-time.Minute)

	candidates := app.selectCandidates([]ghql.PullRequestSummary{older, newer}, "me")
	require.Len(t, candidates, 2)
	assert.Equal(t, 2, candidates[0].Number)
	assert.Equal(t, 1, candidates[1].Number)
}
