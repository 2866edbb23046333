package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobradar/internal/config"
	"github.com/amishk599/jobradar/internal/filter"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/store"
)

const (
	maxJobsPerRequest   = 5000
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// HistoryReader is the read side of the match archive.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]store.ArchivedJob, error)
	Count(ctx context.Context) (int, error)
}

// Handler serves the API routes.
type Handler struct {
	engine  *filter.Engine
	history HistoryReader
	logger  *slog.Logger
	now     func() time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHistory enables GET /v1/history.
func WithHistory(h HistoryReader) HandlerOption {
	return func(hd *Handler) { hd.history = h }
}

// WithClock sets the clock used by engines built from request criteria.
func WithClock(now func() time.Time) HandlerOption {
	return func(hd *Handler) { hd.now = now }
}

// NewHandler creates a handler. engine evaluates requests that carry no
// criteria of their own; it may be nil, in which case criteria are required.
func NewHandler(engine *filter.Engine, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListPresets returns the names of the built-in criteria presets.
func (h *Handler) ListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": filter.PresetNames()})
}

type jobPayload struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Company     string     `json:"company,omitempty"`
	Location    string     `json:"location,omitempty"`
	URL         string     `json:"url"`
	Description string     `json:"description,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	Source      string     `json:"source,omitempty"`
}

func (p jobPayload) job() model.Job {
	return model.Job{
		ID:          p.ID,
		Title:       p.Title,
		Company:     p.Company,
		Location:    p.Location,
		URL:         p.URL,
		Description: p.Description,
		PostedAt:    p.PostedAt,
		Source:      p.Source,
	}
}

func payloadFromJob(j model.Job) jobPayload {
	return jobPayload{
		ID:          j.ID,
		Title:       j.Title,
		Company:     j.Company,
		Location:    j.Location,
		URL:         j.URL,
		Description: j.Description,
		PostedAt:    j.PostedAt,
		Source:      j.Source,
	}
}

type criteriaPayload struct {
	Preset                      string              `json:"preset"`
	Keywords                    []string            `json:"keywords"`
	Locations                   []string            `json:"locations"`
	IncludeUnspecifiedLocations *bool               `json:"include_unspecified_locations"`
	MaxDaysOld                  *int                `json:"max_days_old"`
	Strategy                    string              `json:"strategy"`
	ExactMatch                  bool                `json:"exact_match"`
	UseRegex                    bool                `json:"use_regex"`
	Categories                  []string            `json:"categories"`
	ExcludedTitles              []string            `json:"excluded_titles"`
	RelatedTerms                map[string][]string `json:"related_terms"`
}

func (p criteriaPayload) criteria() (filter.Criteria, error) {
	return config.FilterConfig{
		Preset:                      p.Preset,
		Keywords:                    p.Keywords,
		Locations:                   p.Locations,
		IncludeUnspecifiedLocations: p.IncludeUnspecifiedLocations,
		MaxDaysOld:                  p.MaxDaysOld,
		Strategy:                    p.Strategy,
		ExactMatch:                  p.ExactMatch,
		UseRegex:                    p.UseRegex,
		Categories:                  p.Categories,
		ExcludedTitles:              p.ExcludedTitles,
		RelatedTerms:                p.RelatedTerms,
	}.Criteria()
}

type filterRequest struct {
	Jobs     []jobPayload     `json:"jobs"`
	Criteria *criteriaPayload `json:"criteria,omitempty"`
}

type decisionView struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	filter.Decision
}

type filterResponse struct {
	Total     int            `json:"total"`
	Accepted  []jobPayload   `json:"accepted"`
	Decisions []decisionView `json:"decisions"`
}

// Filter evaluates the posted jobs and returns the accepted subset together
// with the decision for every input job.
func (h *Handler) Filter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Jobs) > maxJobsPerRequest {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too many jobs in one request"})
		return
	}

	engine, err := h.engineFor(req.Criteria)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobs := make([]model.Job, len(req.Jobs))
	for i, p := range req.Jobs {
		jobs[i] = p.job()
	}
	accepted, decisions := engine.FilterWithDecisions(jobs)

	resp := filterResponse{
		Total:     len(jobs),
		Accepted:  make([]jobPayload, len(accepted)),
		Decisions: make([]decisionView, len(decisions)),
	}
	for i, j := range accepted {
		resp.Accepted[i] = payloadFromJob(j)
	}
	for i, d := range decisions {
		resp.Decisions[i] = decisionView{URL: jobs[i].URL, Title: jobs[i].Title, Decision: d}
	}
	h.logger.Debug("filter request", "total", resp.Total, "accepted", len(resp.Accepted))
	c.JSON(http.StatusOK, resp)
}

var errNoCriteria = errors.New("criteria are required: the server has no default filter")

func (h *Handler) engineFor(p *criteriaPayload) (*filter.Engine, error) {
	if p == nil {
		if h.engine == nil {
			return nil, errNoCriteria
		}
		return h.engine, nil
	}
	criteria, err := p.criteria()
	if err != nil {
		return nil, err
	}
	return filter.NewEngine(criteria, filter.WithClock(h.now))
}

type archivedView struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	ArchivedAt time.Time `json:"archived_at"`
	jobPayload
}

// History lists the most recent archived matches, newest first.
func (h *Handler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive is disabled"})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	ctx := c.Request.Context()
	recent, err := h.history.Recent(ctx, limit)
	if err != nil {
		h.logger.Error("reading archive", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read archive"})
		return
	}
	total, err := h.history.Count(ctx)
	if err != nil {
		h.logger.Error("counting archive", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read archive"})
		return
	}

	views := make([]archivedView, len(recent))
	for i, a := range recent {
		views[i] = archivedView{
			ID:         a.ID,
			RunID:      a.RunID,
			ArchivedAt: a.ArchivedAt,
			jobPayload: payloadFromJob(a.Job),
		}
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "jobs": views})
}
