package filter

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobradar/internal/model"
)

// Gate names the check that rejected a posting.
type Gate string

const (
	GateNone          Gate = ""
	GateExcludedTitle Gate = "excluded_title"
	GateCategory      Gate = "category"
	GateKeyword       Gate = "keyword"
	GateLocation      Gate = "location"
	GateAge           Gate = "age"
	GateError         Gate = "error"
)

// Decision is the outcome of evaluating one posting.
type Decision struct {
	Accepted bool   `json:"accepted"`
	Gate     Gate   `json:"gate,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func accept() Decision {
	return Decision{Accepted: true}
}

func reject(gate Gate, reason string) Decision {
	return Decision{Gate: gate, Reason: reason}
}

// Tracer receives every decision the engine makes.
type Tracer interface {
	Trace(job model.Job, d Decision)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(job model.Job, d Decision)

func (f TracerFunc) Trace(job model.Job, d Decision) { f(job, d) }

// NopTracer discards decisions.
type NopTracer struct{}

func (NopTracer) Trace(model.Job, Decision) {}

// SlogTracer logs rejections at debug level and evaluation errors at warn.
type SlogTracer struct {
	logger *slog.Logger
}

// NewSlogTracer returns a tracer writing to logger.
func NewSlogTracer(logger *slog.Logger) *SlogTracer {
	return &SlogTracer{logger: logger}
}

func (t *SlogTracer) Trace(job model.Job, d Decision) {
	if d.Accepted {
		t.logger.Debug("job accepted", "title", job.Title, "company", job.Company, "url", job.URL)
		return
	}
	level := slog.LevelDebug
	if d.Gate == GateError {
		level = slog.LevelWarn
	}
	t.logger.Log(context.Background(), level, "job filtered out",
		"title", job.Title,
		"company", job.Company,
		"gate", string(d.Gate),
		"reason", d.Reason,
	)
}
