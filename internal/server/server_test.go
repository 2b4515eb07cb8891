package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventlogger/internal/analytics"
	"eventlogger/internal/metrics"
	"eventlogger/internal/storage"

	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *metrics.Metrics) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()
	now := time.Now()
	if err := store.AddSubmission(ctx, storage.Submission{ID: "s1", EventType: "Raid", CreatedAt: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddSubmission(ctx, storage.Submission{ID: "s2", EventType: "Raid", CreatedAt: now.AddDate(0, 0, -20)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddAuditLog(ctx, storage.AuditLog{ID: "a1", GuildID: "g1", UserID: "admin", Level: "INFO", Event: "event_type_added", Details: "type=Patrol", CreatedAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("add audit: %v", err)
	}

	m := metrics.New()
	return New(":0", zap.NewNop(), analytics.New(store), m.Registry), m
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestMetrics(t *testing.T) {
	srv, m := newTestServer(t)
	m.Submission(metrics.OutcomeDelivered)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `eventlogger_submissions_total{outcome="delivered"} 1`) {
		t.Fatalf("expected submissions counter in output")
	}
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	var report analytics.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Total != 1 {
		t.Fatalf("expected 1 submission in 7 days, got %d", report.Total)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats?days=30", nil))
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Total != 2 || report.ByEventType["Raid"] != 2 {
		t.Fatalf("unexpected 30 day report %+v", report)
	}
}

func TestStatsRejectsBadDays(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats?days=-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHealthReportsStorageDown(t *testing.T) {
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	store.Close()

	srv := New(":0", zap.NewNop(), analytics.New(store), nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestSubmissions(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/submissions", nil))
	var subs []storage.Submission
	if err := json.NewDecoder(rec.Body).Decode(&subs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != "s1" {
		t.Fatalf("expected only the recent submission, got %+v", subs)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/submissions?days=30", nil))
	if !strings.Contains(rec.Body.String(), `"event_type":"Raid"`) {
		t.Fatalf("expected snake_case fields, got %s", rec.Body.String())
	}
	if err := json.NewDecoder(rec.Body).Decode(&subs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(subs) != 2 || subs[0].ID != "s1" || subs[1].ID != "s2" {
		t.Fatalf("expected newest first, got %+v", subs)
	}
}

func TestAuditTrail(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?days=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var logs []storage.AuditLog
	if err := json.NewDecoder(rec.Body).Decode(&logs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(logs) != 1 || logs[0].Event != "event_type_added" || logs[0].Details != "type=Patrol" {
		t.Fatalf("unexpected audit trail %+v", logs)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?days=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	srv := New(":0", zap.NewNop(), analytics.New(store), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/submissions", nil))
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", rec.Body.String())
	}
}
