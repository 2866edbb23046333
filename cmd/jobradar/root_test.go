package main

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobradar/internal/config"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/notifier"
	"github.com/amishk599/jobradar/internal/retry"
	"github.com/amishk599/jobradar/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Concurrency: 2,
		Sources: []config.SourceConfig{
			{Name: "acme", Type: "greenhouse", Token: "acme", Enabled: true},
			{Name: "beta", Type: "lever", Token: "beta", Enabled: false},
			{Name: "wwr", Type: "rss", URL: "https://example.com/feed.rss", Enabled: true},
			{Name: "local", Type: "file", Path: "jobs.yaml", Enabled: true},
		},
		Filters: config.FilterConfig{Keywords: []string{"developer"}},
		Notifications: []config.NotificationConfig{
			{Type: "log"},
		},
		Retry: retry.DefaultPolicy(),
		RateLimit: config.RateLimitConfig{
			MinDelay: time.Second,
		},
	}
}

func TestBuildSources_SkipsDisabled(t *testing.T) {
	sources, err := buildSources(testConfig(), http.DefaultClient, setupLogger(io.Discard, false, "text"))
	require.NoError(t, err)

	var names []string
	for _, s := range sources {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"acme", "wwr", "local"}, names)
	assert.Equal(t, "rss", sources[1].Kind)
}

func TestBuildSources_NoneEnabled(t *testing.T) {
	cfg := testConfig()
	for i := range cfg.Sources {
		cfg.Sources[i].Enabled = false
	}
	_, err := buildSources(cfg, http.DefaultClient, setupLogger(io.Discard, false, "text"))
	assert.Error(t, err)
}

func TestCreateFetcher_UnknownType(t *testing.T) {
	_, err := createFetcher(config.SourceConfig{Name: "x", Type: "workday"}, http.DefaultClient)
	assert.Error(t, err)
}

func TestBuildNotifier(t *testing.T) {
	logger := setupLogger(io.Discard, false, "text")

	t.Run("single notifier is returned unwrapped", func(t *testing.T) {
		n, err := buildNotifier(testConfig(), http.DefaultClient, logger)
		require.NoError(t, err)
		assert.IsType(t, &notifier.LogNotifier{}, n)
	})

	t.Run("several notifiers fan out", func(t *testing.T) {
		cfg := testConfig()
		cfg.Notifications = append(cfg.Notifications,
			config.NotificationConfig{Type: "slack", WebhookURL: "https://hooks.slack.com/services/T/B/X"},
			config.NotificationConfig{Type: "email", SMTPHost: "smtp.example.com", SMTPPort: 587, From: "radar@example.com", To: []string{"me@example.com"}},
		)
		n, err := buildNotifier(cfg, http.DefaultClient, logger)
		require.NoError(t, err)
		multi, ok := n.(notifier.Multi)
		require.True(t, ok, "got %T", n)
		assert.Len(t, multi, 3)
	})

	t.Run("unknown type", func(t *testing.T) {
		cfg := testConfig()
		cfg.Notifications = []config.NotificationConfig{{Type: "pager"}}
		_, err := buildNotifier(cfg, http.DefaultClient, logger)
		assert.Error(t, err)
	})
}

func TestBuildEngine_UsesConfiguredCriteria(t *testing.T) {
	cfg := testConfig()
	cfg.Filters.Locations = []string{"Remote"}

	engine, err := buildEngine(cfg, nil)
	require.NoError(t, err)
	assert.True(t, engine.Match(model.Job{Title: "Go Developer", Location: "Remote"}))
	assert.False(t, engine.Match(model.Job{Title: "Go Developer", Location: "Berlin"}))
}

func TestRestrictSources(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, restrictSources(cfg, []string{"beta"}))
	for _, s := range cfg.Sources {
		assert.Equal(t, s.Name == "beta", s.Enabled, s.Name)
	}

	assert.Error(t, restrictSources(testConfig(), []string{"nope"}))
}

func TestPrintSources(t *testing.T) {
	var buf bytes.Buffer
	printSources(&buf, testConfig().Sources)

	out := buf.String()
	assert.Contains(t, out, "https://example.com/feed.rss")
	assert.Contains(t, out, "Total: 4 sources (3 enabled, 1 disabled)")
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, nil, 0)
	assert.Equal(t, "No archived matches yet.\n", buf.String())

	buf.Reset()
	printHistory(&buf, []store.ArchivedJob{{
		ArchivedAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
		Job:        model.Job{Company: "Acme", Title: strings.Repeat("x", 50), URL: "https://x/1"},
	}}, 7)
	out := buf.String()
	assert.Contains(t, out, "https://x/1")
	assert.Contains(t, out, "…")
	assert.Contains(t, out, "Showing 1 of 7 archived matches")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "jobradar dev\n", buf.String())
}
