//go:build linux

// Package main - wake_linux.go listens for logind suspend/resume signals so
// a resume is noticed immediately instead of waiting for the drift probe.
package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
)

// watchSleep subscribes to org.freedesktop.login1 PrepareForSleep on the
// system bus. When the bus or the signal is unavailable this returns
// quietly; the timer-drift watcher still covers absence detection.
func (app *App) watchSleep(ctx context.Context) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		slog.Debug("system bus unavailable, relying on timer drift", "error", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("failed to close system bus connection", "error", err)
		}
	}()

	if err := conn.AddMatchSignalContext(ctx,
		dbus.WithMatchInterface("org.freedesktop.login1.Manager"),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		slog.Debug("failed to subscribe to PrepareForSleep", "error", err)
		return
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)

	var sleptAt time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			if len(sig.Body) != 1 {
				continue
			}
			entering, ok := sig.Body[0].(bool)
			if !ok {
				continue
			}
			if entering {
				sleptAt = time.Now()
				slog.Debug("system preparing for sleep")
				continue
			}
			if sleptAt.IsZero() {
				continue
			}
			away := time.Since(sleptAt)
			sleptAt = time.Time{}
			if away > absenceThreshold {
				slog.Info("woke from sleep", "away", away.Round(time.Second))
				app.poll(ctx, true)
			}
		}
	}
}
