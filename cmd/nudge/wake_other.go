//go:build !linux

package main

import "context"

// watchSleep has no platform hook here; the timer-drift watcher covers
// absence detection.
func (*App) watchSleep(context.Context) {}
