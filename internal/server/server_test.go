// ABOUTME: Tests for the HTTP API with stub collaborators
// ABOUTME: Exercises every route through httptest and the full middleware chain
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/index"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/ingest"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/monitor"
)

type stubAnswerer struct {
	answer   models.Answer
	question string
}

func (s *stubAnswerer) Answer(ctx context.Context, question string) models.Answer {
	s.question = question
	return s.answer
}

type stubIngester struct {
	stats models.IngestStats
	err   error
	dir   string
}

func (s *stubIngester) Run(ctx context.Context, dir string) (models.IngestStats, error) {
	s.dir = dir
	return s.stats, s.err
}

type stubIndex struct {
	state index.State
	info  *models.CollectionInfo
	err   error
}

func (s stubIndex) Name() string { return "gbu_docs" }
func (s stubIndex) Refresh(ctx context.Context) (index.State, error) {
	return s.state, nil
}
func (s stubIndex) Info(ctx context.Context) (*models.CollectionInfo, error) {
	return s.info, s.err
}

type fixedSampler struct {
	cpu float64
	err error
}

func (f fixedSampler) Sample(ctx context.Context) (monitor.Sample, error) {
	if f.err != nil {
		return monitor.Sample{}, f.err
	}
	return monitor.Sample{CPUPercent: f.cpu, MemoryPercent: 40, Timestamp: time.Now()}, nil
}

func newTestServer(deps Deps) http.Handler {
	if deps.Answerer == nil {
		deps.Answerer = &stubAnswerer{}
	}
	if deps.Index == nil {
		deps.Index = stubIndex{state: index.StateEmpty, err: models.ErrCollectionNotFound}
	}
	if deps.Monitor == nil {
		deps.Monitor = monitor.New(fixedSampler{cpu: 33}, monitor.Options{Interval: time.Hour, Logger: logging.Discard()})
	}
	deps.Logger = logging.Discard()
	return New(deps).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestChat(t *testing.T) {
	answerer := &stubAnswerer{answer: models.Answer{
		Status:  models.StatusAnswered,
		Text:    "Admissions open in June.",
		Sources: []models.SearchResult{{ID: "0", Distance: 0.2, Text: "Admission opens in June."}},
	}}
	h := newTestServer(Deps{Answerer: answerer})

	rec := do(t, h, http.MethodPost, "/chat", `{"question":"When does admission open?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[chatResponse](t, rec)

	if resp.Answer != "Admissions open in June." || resp.Status != models.StatusAnswered {
		t.Errorf("response = %+v", resp)
	}
	if answerer.question != "When does admission open?" {
		t.Errorf("answerer got %q", answerer.question)
	}
	if resp.PeakStats == nil || resp.PeakStats.CPU != 33 {
		t.Errorf("PeakStats = %+v, want cpu 33 from the baseline sample", resp.PeakStats)
	}
	if len(resp.Sources) != 1 {
		t.Errorf("Sources = %+v", resp.Sources)
	}
}

func TestChat_NotReadyIsStillOK(t *testing.T) {
	answerer := &stubAnswerer{answer: models.Answer{Status: models.StatusFailed, Text: "not ready", Retryable: true}}
	h := newTestServer(Deps{Answerer: answerer})

	rec := do(t, h, http.MethodPost, "/chat", `{"question":"hostel fees"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decode[chatResponse](t, rec); !resp.Retryable || resp.Status != models.StatusFailed {
		t.Errorf("response = %+v", resp)
	}
}

func TestChat_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{"question":`, "invalid JSON body"},
		{"missing question", `{}`, "No question provided"},
		{"blank question", `{"question":"   "}`, "No question provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answerer := &stubAnswerer{}
			rec := do(t, newTestServer(Deps{Answerer: answerer}), http.MethodPost, "/chat", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := decode[map[string]string](t, rec)["error"]; got != tt.want {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
			if answerer.question != "" {
				t.Error("answerer should not be called")
			}
		})
	}
}

func TestChat_MethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(Deps{}), http.MethodGet, "/chat", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestIngest(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantDir  string
	}{
		{"default directory", "", nil, http.StatusOK, "./data"},
		{"subdirectory", `{"directory":"notices"}`, nil, http.StatusOK, filepath.Join("data", "notices")},
		{"no chunks", "", fmt.Errorf("./data: %w", ingest.ErrNoChunks), http.StatusUnprocessableEntity, "./data"},
		{"nothing indexed", "", index.ErrNothingIndexed, http.StatusUnprocessableEntity, "./data"},
		{"backend failure", "", errors.New("disk full"), http.StatusInternalServerError, "./data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := &stubIngester{stats: models.IngestStats{ChunksProduced: 4, ChunksIndexed: 3}, err: tt.err}
			h := newTestServer(Deps{Ingester: ing, DocsDir: "./data"})

			rec := do(t, h, http.MethodPost, "/ingest", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if ing.dir != tt.wantDir {
				t.Errorf("ingested %q, want %q", ing.dir, tt.wantDir)
			}
			resp := decode[ingestResponse](t, rec)
			if resp.Stats.ChunksIndexed != 3 {
				t.Errorf("stats = %+v", resp.Stats)
			}
			if (resp.Error != "") != (tt.err != nil) {
				t.Errorf("error = %q", resp.Error)
			}
		})
	}
}

func TestIngest_DirectoryOutsideDocsDir(t *testing.T) {
	for _, dir := range []string{"/srv/docs", "../secrets", "notices/../../etc", "/etc/passwd"} {
		t.Run(dir, func(t *testing.T) {
			ing := &stubIngester{}
			h := newTestServer(Deps{Ingester: ing, DocsDir: "./data"})

			rec := do(t, h, http.MethodPost, "/ingest", fmt.Sprintf(`{"directory":%q}`, dir))
			if rec.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want 403 (body %s)", rec.Code, rec.Body.String())
			}
			if ing.dir != "" {
				t.Errorf("ingester ran on %q", ing.dir)
			}
		})
	}
}

func TestIngest_NotConfigured(t *testing.T) {
	rec := do(t, newTestServer(Deps{}), http.MethodPost, "/ingest", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name      string
		idx       stubIndex
		wantCode  int
		wantState string
		wantInfo  bool
	}{
		{"empty", stubIndex{state: index.StateEmpty, err: models.ErrCollectionNotFound}, http.StatusOK, "empty", false},
		{"ready", stubIndex{state: index.StateReady, info: &models.CollectionInfo{Name: "gbu_docs", Entries: 12, Dimension: 1024}}, http.StatusOK, "ready", true},
		{"backend error", stubIndex{state: index.StateReady, err: errors.New("database is locked")}, http.StatusInternalServerError, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(Deps{Index: tt.idx}), http.MethodGet, "/status", "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			resp := decode[statusResponse](t, rec)
			if resp.Collection != "gbu_docs" || resp.State != tt.wantState {
				t.Errorf("response = %+v", resp)
			}
			if (resp.Info != nil) != tt.wantInfo {
				t.Errorf("Info = %+v, want present=%v", resp.Info, tt.wantInfo)
			}
		})
	}
}

func TestMonitoringRoutes(t *testing.T) {
	mon := monitor.New(fixedSampler{cpu: 71}, monitor.Options{Interval: time.Hour, Logger: logging.Discard()})
	h := newTestServer(Deps{Monitor: mon})

	rec := do(t, h, http.MethodPost, "/start-monitoring", "")
	if rec.Code != http.StatusOK || !mon.Active() {
		t.Fatalf("start-monitoring status = %d, active = %v", rec.Code, mon.Active())
	}

	rec = do(t, h, http.MethodGet, "/system-stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("system-stats status = %d", rec.Code)
	}
	if s := decode[monitor.Sample](t, rec); s.CPUPercent != 71 {
		t.Errorf("sample = %+v", s)
	}

	rec = do(t, h, http.MethodPost, "/stop-monitoring", "")
	if rec.Code != http.StatusOK || mon.Active() {
		t.Fatalf("stop-monitoring status = %d, active = %v", rec.Code, mon.Active())
	}
	stop := decode[struct {
		Status    string        `json:"status"`
		PeakStats monitor.Peaks `json:"peak_stats"`
	}](t, rec)
	if stop.Status != "success" || stop.PeakStats.CPU != 71 || stop.PeakStats.Memory != 40 {
		t.Errorf("stop response = %+v", stop)
	}

	rec = do(t, h, http.MethodGet, "/stats-history", "")
	if history := decode[[]monitor.Sample](t, rec); len(history) != 2 {
		t.Errorf("history length = %d, want 2 (baseline and system-stats)", len(history))
	}
}

func TestMonitoringRoutes_Failures(t *testing.T) {
	mon := monitor.New(fixedSampler{err: errors.New("no /proc")}, monitor.Options{Interval: time.Hour, Logger: logging.Discard()})
	h := newTestServer(Deps{Monitor: mon})

	if rec := do(t, h, http.MethodGet, "/system-stats", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("system-stats status = %d, want 500", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/stats-history", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty history body = %q, want []", rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	h := newTestServer(Deps{})

	rec := do(t, h, http.MethodOptions, "/chat", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	srv := New(Deps{
		Answerer: &stubAnswerer{},
		Index:    stubIndex{state: index.StateEmpty, err: models.ErrCollectionNotFound},
		Logger:   logging.Discard(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, addr) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/status")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
