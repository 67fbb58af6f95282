package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JonMunkholm/sheetsnap/internal/config"
	"github.com/JonMunkholm/sheetsnap/internal/core"
	"github.com/JonMunkholm/sheetsnap/internal/sheet"
	"github.com/JonMunkholm/sheetsnap/internal/snapshot"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, _ sheet.Descriptor) (string, error) {
	return "Name,City\nAlice,Oslo\n", nil
}

func newTestServer() (*Server, *core.Service) {
	builder := snapshot.NewBuilder(snapshot.Config{
		SourceSheetID:     "spreadsheet-123",
		DefaultPrimaryKey: "Name",
		Sheets:            []sheet.Descriptor{{Name: "Locations", GID: "0"}},
	}, stubFetcher{})
	svc := core.NewService(builder, nil)

	cfg := &config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		RequestTimeout: time.Minute,
	}
	return NewServer(svc, cfg), svc
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestSnapshot_NotReady(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot.json", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before first refresh, got %d", rec.Code)
	}
}

func TestSnapshot_ServedAfterRefresh(t *testing.T) {
	srv, svc := newTestServer()
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("expected an ETag header")
	}

	var doc struct {
		Meta struct {
			SourceSheetID string `json:"source_sheet_id"`
		} `json:"meta"`
		Sheets map[string][]map[string]string `json:"sheets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if doc.Meta.SourceSheetID != "spreadsheet-123" {
		t.Errorf("unexpected meta: %+v", doc.Meta)
	}
	if len(doc.Sheets["locations"]) != 1 {
		t.Errorf("unexpected sheets payload: %v", doc.Sheets)
	}
}

func TestSnapshot_ETagRevalidation(t *testing.T) {
	srv, svc := newTestServer()
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap, _ := svc.Latest()

	req := httptest.NewRequest(http.MethodGet, "/snapshot.json", nil)
	req.Header.Set("If-None-Match", `"`+snap.Digest+`"`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotModified {
		t.Errorf("expected 304 for matching ETag, got %d", rec.Code)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	srv, svc := newTestServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := svc.Latest(); err != nil {
		t.Errorf("expected a snapshot after manual refresh, got %v", err)
	}
}
