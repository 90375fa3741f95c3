// Package main implements Review Nudge, a cross-platform system tray
// notifier that periodically polls a GitHub repository for freshly opened
// pull requests still waiting on a first team review, and surfaces at most
// one of them at a time, picked at random so review load spreads across
// whoever happens to be looking.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/energye/systray"
	"github.com/gen2brain/beeep"

	"github.com/reviewnudge/nudge/pkg/ghql"
	"github.com/reviewnudge/nudge/pkg/logging"
)

// Version information - set during build with -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultPollInterval = 10 * time.Minute
	minPollInterval     = 30 * time.Second
	httpTimeout         = 30 * time.Second
)

// Config holds the runtime knobs set via flags.
type Config struct {
	Owner        string
	Repo         string
	PollInterval time.Duration
}

// App owns all mutable notifier state: the session, the active display and
// the user settings, guarded by a single mutex.
type App struct {
	tray    Tray
	gh      prClient
	rng     *rand.Rand
	ctx     context.Context
	notify  func(title, message string) error
	openURL func(ctx context.Context, rawURL string) error
	cfg     Config

	// recheckInterval is how often a displayed pull request is re-validated.
	recheckInterval time.Duration

	// surfaceMu serializes full tray redraws.
	surfaceMu sync.Mutex

	mu       sync.Mutex
	session  *Session
	display  *display
	settings Settings
}

func main() {
	var cfg Config
	var verbose, showVersion bool
	var logfile string
	flag.StringVar(&cfg.Owner, "owner", "microsoft", "repository owner to watch")
	flag.StringVar(&cfg.Repo, "repo", "vscode", "repository name to watch")
	flag.DurationVar(&cfg.PollInterval, "interval", defaultPollInterval, "poll interval (e.g. 5m, 10m)")
	flag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flag.StringVar(&logfile, "logfile", "", "duplicate logs to this file")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("nudge %s (commit=%s, date=%s)\n", version, commit, date)
		return
	}

	closeLogs, err := logging.Setup(verbose, logfile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closeLogs() }()

	if cfg.PollInterval < minPollInterval {
		slog.Warn("poll interval too short, using minimum",
			"requested", cfg.PollInterval, "minimum", minPollInterval)
		cfg.PollInterval = minPollInterval
	}

	slog.Info("starting Review Nudge",
		"version", version,
		"repo", cfg.Owner+"/"+cfg.Repo,
		"interval", cfg.PollInterval)

	app := &App{
		tray:            &RealTray{},
		gh:              ghql.NewClient(&http.Client{Timeout: httpTimeout}, ""),
		rng:             rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid()))),
		cfg:             cfg,
		recheckInterval: revalidateInterval,
		settings:        loadSettings(),
		notify:          func(title, message string) error { return beeep.Notify(title, message, "") },
		openURL:         openHelp,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	systray.Run(func() { app.onReady(ctx) }, func() {
		slog.Info("shutting down")
		cancel()
	})
}

// onReady wires the tray surface and starts the background loops.
func (app *App) onReady(ctx context.Context) {
	app.ctx = ctx

	systray.SetOnClick(func(menu systray.IMenu) {
		if menu != nil {
			if err := menu.ShowMenu(); err != nil {
				slog.Warn("failed to show menu", "error", err)
			}
		}
	})
	systray.SetOnRClick(func(menu systray.IMenu) {
		if menu != nil {
			if err := menu.ShowMenu(); err != nil {
				slog.Warn("failed to show menu", "error", err)
			}
		}
	})

	app.refreshSurface()

	go func() {
		if app.RestoreSilently(ctx) {
			app.refreshSurface()
		}
		go app.pollLoop(ctx)
		go app.watchAbsence(ctx)
		go app.watchSleep(ctx)
	}()
}
