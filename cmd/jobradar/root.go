package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/adapter"
	"github.com/amishk599/jobradar/internal/collector"
	"github.com/amishk599/jobradar/internal/config"
	"github.com/amishk599/jobradar/internal/filter"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/notifier"
	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/ratelimit"
	"github.com/amishk599/jobradar/internal/retry"
	"github.com/amishk599/jobradar/internal/store"
)

const httpTimeout = 30 * time.Second

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobradar",
	Short: "Job radar: aggregate postings, alert on matches",
	Long: "jobradar pulls postings from ATS boards, RSS feeds and local files, " +
		"filters them against your criteria and sends the matches to Slack, Telegram, email or the log.",
	// No subcommand runs the daemon, so service units can invoke the binary directly.
	RunE:         runStart,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"path to config file (default: "+config.EnvConfigPath+" env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func setupLogger(w io.Writer, dbg bool, format string) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// mustLoadConfig loads the config and returns a logger in the configured
// format. It exits the process when the config is invalid.
func mustLoadConfig() (*config.Config, *slog.Logger) {
	logger := setupLogger(os.Stdout, debug, "text")
	cfg, err := config.Load(config.ResolvePath(cfgPath))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg, setupLogger(os.Stdout, debug, cfg.Log.Format)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

func buildEngine(cfg *config.Config, tracer filter.Tracer) (*filter.Engine, error) {
	criteria, err := cfg.Filters.Criteria()
	if err != nil {
		return nil, err
	}
	return filter.NewEngine(criteria, filter.WithTracer(tracer))
}

func createFetcher(s config.SourceConfig, client *http.Client) (model.JobFetcher, error) {
	switch s.Type {
	case "greenhouse":
		return adapter.NewGreenhouseAdapter(s.Token, s.Name, client), nil
	case "lever":
		return adapter.NewLeverAdapter(s.Token, s.Name, client), nil
	case "rss":
		return adapter.NewFeedAdapter(s.Name, s.URL, client), nil
	case "file":
		return adapter.NewFileAdapter(s.Name, s.Path), nil
	default:
		return nil, fmt.Errorf("unsupported source type %q", s.Type)
	}
}

// buildSources wraps each enabled source in rate limiting (shared per source
// type) and retries. Each retry attempt waits for its own rate-limit slot.
func buildSources(cfg *config.Config, client *http.Client, logger *slog.Logger) ([]collector.Source, error) {
	limiter := ratelimit.NewSourceRateLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.Overrides)

	var sources []collector.Source
	for _, s := range cfg.Sources {
		if !s.Enabled {
			continue
		}
		fetcher, err := createFetcher(s, client)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", s.Name, err)
		}
		if s.Type != "file" {
			fetcher = ratelimit.NewRateLimitedFetcher(fetcher, limiter, s.Type)
		}
		fetcher = retry.NewRetryFetcher(fetcher, cfg.Retry, logger.With("source", s.Name))

		sources = append(sources, collector.Source{Name: s.Name, Kind: s.Type, Fetcher: fetcher})
		logger.Debug("registered source", "name", s.Name, "type", s.Type)
	}
	if len(sources) == 0 {
		return nil, errors.New("no enabled sources")
	}
	return sources, nil
}

func buildNotifier(cfg *config.Config, client *http.Client, logger *slog.Logger) (model.Notifier, error) {
	var out notifier.Multi
	for _, n := range cfg.Notifications {
		nt, err := createNotifier(n, cfg.Retry, client, logger)
		if err != nil {
			return nil, fmt.Errorf("notifier %s: %w", n.Type, err)
		}
		out = append(out, nt)
		logger.Debug("registered notifier", "type", n.Type)
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

func createNotifier(n config.NotificationConfig, policy retry.Policy, client *http.Client, logger *slog.Logger) (model.Notifier, error) {
	switch n.Type {
	case "log":
		return notifier.NewLogNotifier(logger), nil
	case "slack":
		d := notifier.NewSlackDeliverer(n.WebhookURL, client)
		return notifier.NewChannel("slack", d, notifier.SlackRenderer, 1, policy, logger), nil
	case "telegram":
		chatID, err := n.TelegramChatID()
		if err != nil {
			return nil, err
		}
		d, err := notifier.NewTelegramDeliverer(n.BotToken, chatID, client, "")
		if err != nil {
			return nil, err
		}
		render := notifier.HTMLRenderer
		if n.ParseMode == "MarkdownV2" {
			render = notifier.MarkdownRenderer
		}
		return notifier.NewChannel("telegram", d, render, n.ChunkSize, policy, logger), nil
	case "email":
		d, err := notifier.NewEmailDeliverer(notifier.EmailConfig{
			Host:     n.SMTPHost,
			Port:     n.SMTPPort,
			Username: n.Username,
			Password: n.Password,
			From:     n.From,
			To:       n.To,
		})
		if err != nil {
			return nil, err
		}
		return notifier.NewChannel("email", d, notifier.TextRenderer, n.ChunkSize, policy, logger), nil
	default:
		return nil, fmt.Errorf("unknown notification type %q", n.Type)
	}
}

// buildPipeline wires sources, engine and notifier. The archive is opened
// only when withArchive is set and the config enables it; the caller closes it.
func buildPipeline(cfg *config.Config, n model.Notifier, withArchive bool, logger *slog.Logger) (*pipeline.Pipeline, *store.SQLiteArchive, error) {
	client := newHTTPClient()

	sources, err := buildSources(cfg, client, logger)
	if err != nil {
		return nil, nil, err
	}
	engine, err := buildEngine(cfg, filter.NewSlogTracer(logger))
	if err != nil {
		return nil, nil, err
	}
	if n == nil {
		if n, err = buildNotifier(cfg, client, logger); err != nil {
			return nil, nil, err
		}
	}

	var opts []pipeline.Option
	var archive *store.SQLiteArchive
	if withArchive && cfg.Archive.Enabled {
		archive, err = store.NewSQLiteArchive(cfg.Archive.Path)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, pipeline.WithArchive(archive))
	}

	c := collector.New(sources, cfg.Concurrency, logger)
	return pipeline.New(c, engine, n, logger, opts...), archive, nil
}

func logConfigSummary(cfg *config.Config, logger *slog.Logger) {
	enabled := 0
	for _, s := range cfg.Sources {
		if s.Enabled {
			enabled++
		}
	}
	logger.Info("config loaded",
		"schedule", cfg.Schedule,
		"sources", enabled,
		"preset", cfg.Filters.Preset,
		"keywords", len(cfg.Filters.Keywords),
		"locations", len(cfg.Filters.Locations),
		"notifiers", len(cfg.Notifications),
		"archive", cfg.Archive.Enabled,
	)
}
