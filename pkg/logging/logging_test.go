package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMultiHandlerFanout(t *testing.T) {
	var a, b bytes.Buffer
	h := fanout([]slog.Handler{
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	})

	logger := slog.New(h)
	logger.Info("poll complete", "candidates", 3)

	for name, buf := range map[string]*bytes.Buffer{"first": &a, "second": &b} {
		if !strings.Contains(buf.String(), "poll complete") {
			t.Errorf("%s handler missing record: %q", name, buf.String())
		}
		if !strings.Contains(buf.String(), "candidates=3") {
			t.Errorf("%s handler missing attribute: %q", name, buf.String())
		}
	}
}

func TestMultiHandlerLevels(t *testing.T) {
	var quiet, chatty bytes.Buffer
	h := fanout([]slog.Handler{
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&chatty, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("handler should be enabled when any destination accepts the level")
	}

	slog.New(h).Debug("revalidation tick")
	if quiet.Len() != 0 {
		t.Errorf("warn-level handler received debug record: %q", quiet.String())
	}
	if !strings.Contains(chatty.String(), "revalidation tick") {
		t.Errorf("debug-level handler missing record: %q", chatty.String())
	}
}

func TestSetupWithLogfile(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	logfile := filepath.Join(t.TempDir(), "logs", "nudge.log")
	closer, err := Setup(true, logfile)
	if err != nil {
		t.Fatalf("Setup error: %v", err)
	}

	slog.Info("startup", "version", "test")
	if err := closer(); err != nil {
		t.Fatalf("closer error: %v", err)
	}

	data, err := os.ReadFile(logfile)
	if err != nil {
		t.Fatalf("read logfile: %v", err)
	}
	if !strings.Contains(string(data), "startup") {
		t.Errorf("logfile missing record: %q", string(data))
	}
}

func TestFanoutSingleHandlerUnwrapped(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, nil)
	if got := fanout([]slog.Handler{inner}); got != slog.Handler(inner) {
		t.Error("single handler should not be wrapped")
	}
}
