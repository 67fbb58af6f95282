package fetch

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/JonMunkholm/sheetsnap/internal/sheet"
)

// fakeTransport records requested URLs and plays back a canned response.
type fakeTransport struct {
	urls   []string
	status int
	body   []byte
	err    error
}

func (f *fakeTransport) Get(_ context.Context, rawURL string) (int, []byte, error) {
	f.urls = append(f.urls, rawURL)
	return f.status, f.body, f.err
}

func newFetcher(tr Transport) *CSVExportFetcher {
	return &CSVExportFetcher{
		BaseURL:       "https://docs.example.com",
		SpreadsheetID: "spreadsheet-123",
		Transport:     tr,
	}
}

func TestFetch_PrefersStableIdentifier(t *testing.T) {
	tr := &fakeTransport{status: 200, body: []byte("Name\nAlice\n")}
	f := newFetcher(tr)

	text, err := f.Fetch(context.Background(), sheet.Descriptor{Name: "Locations", GID: "846"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Name\nAlice\n" {
		t.Errorf("unexpected body: %q", text)
	}

	u, err := url.Parse(tr.urls[0])
	if err != nil {
		t.Fatalf("bad url: %v", err)
	}
	if !strings.HasSuffix(u.Path, "/spreadsheets/d/spreadsheet-123/export") {
		t.Errorf("expected export path, got %s", u.Path)
	}
	q := u.Query()
	if q.Get("gid") != "846" || q.Get("format") != "csv" {
		t.Errorf("expected gid addressing, got query %v", q)
	}
	if q.Get("sheet") != "" {
		t.Error("gid addressing must not also pass a sheet name")
	}
}

func TestFetch_FallsBackToNameAddressing(t *testing.T) {
	tr := &fakeTransport{status: 200, body: []byte("Name\nAlice\n")}
	f := newFetcher(tr)

	if _, err := f.Fetch(context.Background(), sheet.Descriptor{Name: "Service Hours"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u, _ := url.Parse(tr.urls[0])
	if !strings.HasSuffix(u.Path, "/gviz/tq") {
		t.Errorf("expected gviz path for name addressing, got %s", u.Path)
	}
	if u.Query().Get("sheet") != "Service Hours" {
		t.Errorf("expected sheet name in query, got %v", u.Query())
	}
}

func TestFetch_CacheBusterUniquePerCall(t *testing.T) {
	tr := &fakeTransport{status: 200, body: []byte("Name\nAlice\n")}
	f := newFetcher(tr)
	d := sheet.Descriptor{Name: "Locations", GID: "846"}

	ctx := context.Background()
	if _, err := f.Fetch(ctx, d); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Fetch(ctx, d); err != nil {
		t.Fatal(err)
	}

	u1, _ := url.Parse(tr.urls[0])
	u2, _ := url.Parse(tr.urls[1])
	t1 := u1.Query().Get("nocache")
	t2 := u2.Query().Get("nocache")
	if t1 == "" || t2 == "" {
		t.Fatal("expected a nocache token on every request")
	}
	if t1 == t2 {
		t.Error("expected a fresh token per call")
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	tr := &fakeTransport{status: 404, body: []byte("not found")}
	f := newFetcher(tr)

	_, err := f.Fetch(context.Background(), sheet.Descriptor{Name: "Locations", GID: "846"})
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
	if !strings.Contains(err.Error(), "Locations") {
		t.Errorf("error must carry the sheet identity, got %v", err)
	}
}

func TestFetch_TransportError(t *testing.T) {
	wantErr := errors.New("connection refused")
	tr := &fakeTransport{err: wantErr}
	f := newFetcher(tr)

	_, err := f.Fetch(context.Background(), sheet.Descriptor{Name: "Locations", GID: "846"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
}

func TestFetch_RejectsNonCSVBodies(t *testing.T) {
	cases := map[string]string{
		"html error page": "<!DOCTYPE html><html><body>sign in</body></html>",
		"gviz wrapper":    "/*O_o*/\ngoogle.visualization.Query.setResponse({});",
		"xssi prefix":     ")]}'\n{}",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			tr := &fakeTransport{status: 200, body: []byte(body)}
			f := newFetcher(tr)

			if _, err := f.Fetch(context.Background(), sheet.Descriptor{Name: "X", GID: "1"}); err == nil {
				t.Error("expected malformed-body error")
			}
		})
	}
}

func TestFetch_StripsBOM(t *testing.T) {
	tr := &fakeTransport{status: 200, body: []byte("\xef\xbb\xbfName\nAlice\n")}
	f := newFetcher(tr)

	text, err := f.Fetch(context.Background(), sheet.Descriptor{Name: "X", GID: "1"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "Name") {
		t.Errorf("expected BOM stripped, got %q", text)
	}
}
