package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobradar/internal/filter"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/store"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, opts ...HandlerOption) *gin.Engine {
	t.Helper()
	engine, err := filter.NewEngine(filter.Criteria{
		Keywords:                    []string{"developer"},
		Locations:                   []string{"Cluj-Napoca"},
		IncludeUnspecifiedLocations: true,
		MaxDaysOld:                  30,
	}, filter.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	opts = append([]HandlerOption{WithClock(func() time.Time { return testNow })}, opts...)
	return NewServer(NewHandler(engine, discardLogger(), opts...), discardLogger())
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListPresets(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/v1/presets", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"presets":["remote","romania"]}`, w.Body.String())
}

func TestFilter_DefaultEngine(t *testing.T) {
	posted := testNow.AddDate(0, 0, -3)
	body := map[string]any{
		"jobs": []map[string]any{
			{"title": "Junior Developer", "location": "Cluj-Napoca, Romania", "url": "https://x/1", "posted_at": posted},
			{"title": "Junior Developer", "location": "Berlin", "url": "https://x/2"},
			{"title": "Accountant", "url": "https://x/3"},
		},
	}

	w := do(t, newTestServer(t), http.MethodPost, "/v1/filter", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp filterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Accepted, 1)
	assert.Equal(t, "https://x/1", resp.Accepted[0].URL)

	require.Len(t, resp.Decisions, 3)
	assert.True(t, resp.Decisions[0].Accepted)
	assert.Equal(t, filter.GateLocation, resp.Decisions[1].Gate)
	assert.Equal(t, filter.GateKeyword, resp.Decisions[2].Gate)
	assert.Equal(t, "https://x/3", resp.Decisions[2].URL)
}

func TestFilter_RequestCriteriaOverrideDefault(t *testing.T) {
	body := map[string]any{
		"jobs": []map[string]any{
			{"title": "Accountant", "location": "Berlin", "url": "https://x/1"},
		},
		"criteria": map[string]any{
			"keywords":  []string{"accountant"},
			"locations": []string{"Berlin"},
		},
	}

	w := do(t, newTestServer(t), http.MethodPost, "/v1/filter", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp filterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Accepted, 1)
}

func TestFilter_InvalidRegexIsBadRequest(t *testing.T) {
	body := map[string]any{
		"jobs":     []map[string]any{{"title": "Go Developer", "url": "u"}},
		"criteria": map[string]any{"keywords": []string{"(go"}, "use_regex": true},
	}

	w := do(t, newTestServer(t), http.MethodPost, "/v1/filter", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid filter criteria")
}

func TestFilter_MalformedBody(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodPost, "/v1/filter", `{"jobs": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilter_NoDefaultEngineRequiresCriteria(t *testing.T) {
	r := NewServer(NewHandler(nil, discardLogger()), discardLogger())

	w := do(t, r, http.MethodPost, "/v1/filter", map[string]any{"jobs": []any{}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "criteria are required")
}

func TestFilter_EmptyJobList(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodPost, "/v1/filter", map[string]any{"jobs": []any{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":0,"accepted":[],"decisions":[]}`, w.Body.String())
}

type fakeHistory struct {
	jobs      []store.ArchivedJob
	err       error
	lastLimit int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]store.ArchivedJob, error) {
	f.lastLimit = limit
	return f.jobs, f.err
}

func (f *fakeHistory) Count(context.Context) (int, error) {
	return len(f.jobs), f.err
}

func TestHistory(t *testing.T) {
	hist := &fakeHistory{jobs: []store.ArchivedJob{{
		ID:         "a1",
		RunID:      "run-1",
		ArchivedAt: testNow,
		Job:        model.Job{Title: "Go Developer", Company: "Acme", URL: "https://x/1"},
	}}}
	r := newTestServer(t, WithHistory(hist))

	w := do(t, r, http.MethodGet, "/v1/history?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 5, hist.lastLimit)

	var resp struct {
		Total int            `json:"total"`
		Jobs  []archivedView `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, "run-1", resp.Jobs[0].RunID)
	assert.Equal(t, "Acme", resp.Jobs[0].Company)
}

func TestHistory_Errors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		w := do(t, newTestServer(t), http.MethodGet, "/v1/history", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("bad limit", func(t *testing.T) {
		w := do(t, newTestServer(t, WithHistory(&fakeHistory{})), http.MethodGet, "/v1/history?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("limit is capped", func(t *testing.T) {
		hist := &fakeHistory{}
		do(t, newTestServer(t, WithHistory(hist)), http.MethodGet, "/v1/history?limit=100000", nil)
		assert.Equal(t, maxHistoryLimit, hist.lastLimit)
	})
	t.Run("store failure", func(t *testing.T) {
		w := do(t, newTestServer(t, WithHistory(&fakeHistory{err: errors.New("locked")})), http.MethodGet, "/v1/history", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestNoRoute(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
