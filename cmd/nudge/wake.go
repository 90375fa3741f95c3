// Package main - wake.go detects return from a long absence so a forced
// poll can run. A desktop tray has no window focus events, so absence is
// inferred from timer drift: a probe ticker that fires far later than
// scheduled means the machine was suspended or the process was starved for
// the duration of the gap.
package main

import (
	"context"
	"log/slog"
	"time"
)

const (
	// absenceProbeInterval is how often the drift probe fires.
	absenceProbeInterval = 30 * time.Second

	// absenceThreshold is the away duration that counts as a long absence.
	absenceThreshold = 5 * time.Minute
)

// absenceTracker records when the process was last observed running and
// classifies the gap on each observation.
type absenceTracker struct {
	lastSeen  time.Time
	threshold time.Duration
}

func newAbsenceTracker(now time.Time) *absenceTracker {
	return &absenceTracker{lastSeen: now, threshold: absenceThreshold}
}

// observe records an observation and reports the time since the previous
// one, plus whether that gap qualifies as a long absence.
func (t *absenceTracker) observe(now time.Time) (away time.Duration, longAbsence bool) {
	away = now.Sub(t.lastSeen)
	t.lastSeen = now
	return away, away > t.threshold
}

// watchAbsence runs the drift probe until ctx is cancelled, firing a forced
// poll when a long absence ends.
func (app *App) watchAbsence(ctx context.Context) {
	tracker := newAbsenceTracker(time.Now())
	ticker := time.NewTicker(absenceProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if away, long := tracker.observe(now); long {
				slog.Info("returned from long absence", "away", away.Round(time.Second))
				app.poll(ctx, true)
			}
		}
	}
}
