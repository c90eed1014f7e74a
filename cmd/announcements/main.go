package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"annboard/announcements/internal/config"
	"annboard/announcements/internal/feed"
	"annboard/announcements/internal/models"
	"annboard/announcements/internal/server"
	"annboard/announcements/internal/server/api"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	cfg := config.DefaultConfig()

	watchCmd := flag.NewFlagSet("watch", flag.ExitOnError)
	addFeedFlags(watchCmd, cfg)
	watchCmd.DurationVar(&cfg.RefreshInterval, "interval",
		config.GetEnvDuration("ANNOUNCEMENTS_INTERVAL", cfg.RefreshInterval),
		"Interval between background refreshes (env: ANNOUNCEMENTS_INTERVAL)")
	var once bool
	watchCmd.BoolVar(&once, "once", false, "Perform a single fetch cycle and exit")
	watchLogLevel := addLogLevelFlag(watchCmd)

	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	addFeedFlags(serveCmd, cfg)
	serveCmd.DurationVar(&cfg.RefreshInterval, "interval",
		config.GetEnvDuration("ANNOUNCEMENTS_INTERVAL", cfg.RefreshInterval),
		"Interval between background refreshes (env: ANNOUNCEMENTS_INTERVAL)")
	serveCmd.StringVar(&cfg.ServerHost, "host",
		config.GetEnvString("ANNOUNCEMENTS_HOST", config.DefaultServerHost),
		"Host to bind the server to (env: ANNOUNCEMENTS_HOST)")
	serveCmd.IntVar(&cfg.ServerPort, "port",
		config.GetEnvInt("ANNOUNCEMENTS_PORT", config.DefaultServerPort),
		"Port to listen on (env: ANNOUNCEMENTS_PORT)")
	serveLogLevel := addLogLevelFlag(serveCmd)

	fetchCmd := flag.NewFlagSet("fetch", flag.ExitOnError)
	addFeedFlags(fetchCmd, cfg)
	fetchLogLevel := addLogLevelFlag(fetchCmd)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "watch":
		watchCmd.Parse(os.Args[2:])
		applyLogLevel(cfg, *watchLogLevel)

		if err := runWatch(cfg, once); err != nil {
			log.Error().Err(err).Msg("Watch failed")
			os.Exit(1)
		}

	case "serve":
		serveCmd.Parse(os.Args[2:])
		applyLogLevel(cfg, *serveLogLevel)

		if err := runServe(cfg); err != nil {
			log.Error().Err(err).Msg("Server failed")
			os.Exit(1)
		}

	case "fetch":
		fetchCmd.Parse(os.Args[2:])
		applyLogLevel(cfg, *fetchLogLevel)

		if err := runFetch(cfg); err != nil {
			log.Error().Err(err).Msg("Fetch failed")
			os.Exit(1)
		}

	case "-h", "--help", "help":
		printUsage()
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: announcements [command] [options]")
	fmt.Println("Commands: watch, serve, fetch")
	fmt.Println("\nFor command-specific options, use: announcements [command] -h")
}

// addFeedFlags registers the flags shared by every subcommand that
// talks to the announcements source.
func addFeedFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.FeedURL, "url",
		config.GetEnvString("ANNOUNCEMENTS_URL", config.DefaultFeedURL),
		"URL of the announcements JSON document (env: ANNOUNCEMENTS_URL)")
	fs.DurationVar(&cfg.RequestTimeout, "timeout",
		config.GetEnvDuration("ANNOUNCEMENTS_TIMEOUT", cfg.RequestTimeout),
		"HTTP request timeout, 0 disables (env: ANNOUNCEMENTS_TIMEOUT)")
	fs.Uint64Var(&cfg.MaxRetries, "retries",
		uint64(config.GetEnvInt("ANNOUNCEMENTS_MAX_RETRIES", int(cfg.MaxRetries))),
		"Extra attempts on transport errors (env: ANNOUNCEMENTS_MAX_RETRIES)")
}

func addLogLevelFlag(fs *flag.FlagSet) *string {
	return fs.String("log-level",
		config.GetEnvString("ANNOUNCEMENTS_LOG_LEVEL", config.DefaultLogLevel),
		"Log level: debug, info, warn, error (env: ANNOUNCEMENTS_LOG_LEVEL)")
}

func applyLogLevel(cfg *config.Config, levelStr string) {
	if level, err := zerolog.ParseLevel(levelStr); err == nil {
		cfg.LogLevel = level
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
}

func newClient(cfg *config.Config) *feed.Client {
	return feed.NewClient(feed.ClientConfig{
		URL:            cfg.FeedURL,
		UserAgent:      cfg.UserAgent,
		RequestTimeout: cfg.RequestTimeout,
		MaxRetries:     cfg.MaxRetries,
	})
}

// runWatch runs the controller headless, logging state transitions
// until a shutdown signal arrives. With once set, it performs a single
// load and exits.
func runWatch(cfg *config.Config, once bool) error {
	client := newClient(cfg)

	// Blocking alerts surface in the log when running headless.
	alerter := feed.AlertFunc(func(title, message string) {
		log.Error().Str("title", title).Msg(message)
	})

	ctrl := feed.NewController(client, feed.ControllerConfig{
		RefreshInterval: cfg.RefreshInterval,
		Alerter:         alerter,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if once {
		log.Info().Str("url", cfg.FeedURL).Msg("Running in one-shot mode")
		err := ctrl.Fetch(ctx, false)
		state := ctrl.Snapshot()
		log.Info().
			Int("items", len(state.Items)).
			Str("last_error", state.LastError).
			Msg("Fetch cycle finished")
		return err
	}

	log.Info().
		Str("url", cfg.FeedURL).
		Dur("interval", cfg.RefreshInterval).
		Msg("Watching announcements feed")

	ctrl.Start(ctx)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown

	log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	ctrl.Stop()
	return nil
}

// runServe runs the controller and exposes its state over HTTP.
func runServe(cfg *config.Config) error {
	client := newClient(cfg)
	alerts := &api.AlertRecorder{}

	ctrl := feed.NewController(client, feed.ControllerConfig{
		RefreshInterval: cfg.RefreshInterval,
		Alerter:         alerts,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl.Start(ctx)
	defer ctrl.Stop()

	return server.RunServer(ctrl, alerts, cfg.ListenAddr(), log.Logger, cfg.APIKey)
}

// runFetch performs a one-shot fetch and prints the rendered items to
// stdout as JSON.
func runFetch(cfg *config.Config) error {
	client := newClient(cfg)

	items, err := client.FetchAnnouncements(context.Background())
	if err != nil {
		return fmt.Errorf("fetching announcements: %w", err)
	}

	rendered := lo.Map(items, func(item models.Announcement, _ int) api.RenderedItem {
		return api.RenderedItem{
			Summary:     item.DisplaySummary(),
			Description: item.DisplayDescription(),
			Priority:    item.DisplayPriority(),
			Style:       feed.StyleFor(lo.FromPtr(item.Priority)),
		}
	})

	out, err := json.MarshalIndent(rendered, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
