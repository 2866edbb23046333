// Package filter decides which postings are relevant.
//
// An Engine runs each posting through a fixed sequence of gates: excluded
// titles, categories, keywords, location, then age. The first gate that fails
// rejects the posting and the remaining gates are skipped.
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/textnorm"
)

// descriptionWindow bounds how much of the description exact-token matching reads.
const descriptionWindow = 500

// Ensure Engine implements model.JobFilter.
var _ model.JobFilter = (*Engine)(nil)

// Engine evaluates postings against compiled criteria. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	criteria *Compiled
	tracer   Tracer
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTracer sets the collaborator that receives every decision.
func WithTracer(t Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithClock overrides time.Now for the age gate.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine compiles c and returns an engine. The only error is invalid criteria.
func NewEngine(c Criteria, opts ...Option) (*Engine, error) {
	compiled, err := Compile(c)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		criteria: compiled,
		tracer:   NopTracer{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Criteria exposes the compiled criteria.
func (e *Engine) Criteria() *Compiled { return e.criteria }

// Match reports whether job passes every gate.
func (e *Engine) Match(job model.Job) bool {
	return e.Evaluate(job).Accepted
}

// FilterJobs returns the accepted postings in input order.
func (e *Engine) FilterJobs(jobs []model.Job) []model.Job {
	accepted := make([]model.Job, 0, len(jobs))
	for _, job := range jobs {
		if e.Evaluate(job).Accepted {
			accepted = append(accepted, job)
		}
	}
	return accepted
}

// FilterWithDecisions is FilterJobs plus the decision for every input posting,
// index-aligned with jobs.
func (e *Engine) FilterWithDecisions(jobs []model.Job) ([]model.Job, []Decision) {
	accepted := make([]model.Job, 0, len(jobs))
	decisions := make([]Decision, len(jobs))
	for i, job := range jobs {
		decisions[i] = e.Evaluate(job)
		if decisions[i].Accepted {
			accepted = append(accepted, job)
		}
	}
	return accepted, decisions
}

// Evaluate runs job through the gates. A panic while evaluating is turned into
// a GateError rejection so one bad record cannot stop a batch.
func (e *Engine) Evaluate(job model.Job) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			d = reject(GateError, fmt.Sprintf("evaluation failed: %v", r))
		}
		e.tracer.Trace(job, d)
	}()
	return e.evaluate(job)
}

func (e *Engine) evaluate(job model.Job) Decision {
	c := e.criteria

	if phrase, hit := c.excludedPhrase(job.Title); hit {
		return reject(GateExcludedTitle, fmt.Sprintf("title contains excluded phrase %q", phrase))
	}

	if len(c.categories) > 0 && !c.matchesCategory(job) {
		return reject(GateCategory, "no category matches")
	}

	if reason, ok := c.matchesKeywords(job); !ok {
		return reject(GateKeyword, reason)
	}

	if reason, ok := c.matchesLocation(job.Location); !ok {
		return reject(GateLocation, reason)
	}

	if c.maxDaysOld > 0 && job.PostedAt != nil {
		cutoff := e.now().AddDate(0, 0, -c.maxDaysOld)
		if job.PostedAt.Before(cutoff) {
			return reject(GateAge, fmt.Sprintf("job too old (posted %s)", job.PostedAt.Format("2006-01-02")))
		}
	}

	return accept()
}

func (c *Compiled) excludedPhrase(title string) (string, bool) {
	if len(c.excludedTitles) == 0 {
		return "", false
	}
	folded := textnorm.Fold(title)
	for _, phrase := range c.excludedTitles {
		if strings.Contains(folded, phrase) {
			return phrase, true
		}
	}
	return "", false
}

func (c *Compiled) matchesCategory(job model.Job) bool {
	title := textnorm.Fold(job.Title)
	desc := textnorm.Fold(job.Description)
	for _, cat := range c.categories {
		if strings.Contains(title, cat) || strings.Contains(desc, cat) {
			return true
		}
	}
	return false
}

func (c *Compiled) matchesKeywords(job model.Job) (string, bool) {
	title := textnorm.Normalize(job.Title)
	desc := textnorm.Normalize(job.Description)
	if title == "" && desc == "" {
		return "empty title and description", false
	}

	switch c.strategy {
	case StrategyRegex:
		if anyPatternMatches(c.patterns, job.Title+" "+job.Description) {
			return "", true
		}
		return "no regex keyword matches", false

	case StrategyExactTokens:
		words := textnorm.Tokens(title + " " + textnorm.Normalize(headRunes(job.Description, descriptionWindow)))
		for _, tokens := range c.keywordTokens {
			if containsAll(words, tokens) {
				return "", true
			}
		}
		return "no exact keyword matches", false

	default:
		text := title + " " + desc
		for _, k := range c.keywords {
			if strings.Contains(text, k) {
				return "", true
			}
		}
		return "no partial keyword matches", false
	}
}

func (c *Compiled) matchesLocation(raw string) (string, bool) {
	location := textnorm.Normalize(raw)
	if location == "" {
		if c.includeUnspecified {
			return "", true
		}
		return "unspecified location not allowed", false
	}

	if strings.Contains(location, "remote") {
		return "", true
	}

	tokens := textnorm.Tokens(location)
	for _, allowed := range c.locationTokens {
		if containsAll(tokens, allowed) {
			return "", true
		}
	}
	return fmt.Sprintf("location %q not in allowed locations", location), false
}

func anyPatternMatches(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// containsAll reports whether every token is in set. An empty token list never matches.
func containsAll(set map[string]struct{}, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

func headRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
