// Package fetch resolves sheet descriptors to raw CSV text.
//
// Addressing strategies are pluggable behind the Fetcher interface; the
// canonical strategy is CSV export by stable identifier (gid), with
// display-name export as the fallback when no gid is configured. Display
// names are free text that can collide or be renamed, so the gid path is
// always preferred.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/JonMunkholm/sheetsnap/internal/sheet"
	"github.com/google/uuid"
)

// Transport is the minimal HTTP surface the fetcher needs. Authentication,
// retry and rate limiting belong to the implementation behind it.
type Transport interface {
	Get(ctx context.Context, url string) (status int, body []byte, err error)
}

// HTTPTransport is the default Transport backed by an *http.Client.
type HTTPTransport struct {
	Client *http.Client
}

func (t *HTTPTransport) Get(ctx context.Context, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Fetcher resolves one sheet descriptor to raw CSV text, or fails with a
// sheet-scoped error.
type Fetcher interface {
	Fetch(ctx context.Context, d sheet.Descriptor) (string, error)
}

// CSVExportFetcher fetches sheets from one spreadsheet via its CSV export
// endpoints. Every request carries a per-call uniqueness token so no
// intermediary cache can serve stale content.
type CSVExportFetcher struct {
	BaseURL       string
	SpreadsheetID string
	Transport     Transport
}

func (f *CSVExportFetcher) Fetch(ctx context.Context, d sheet.Descriptor) (string, error) {
	exportURL := f.exportURL(d)

	status, body, err := f.Transport.Get(ctx, exportURL)
	if err != nil {
		return "", fmt.Errorf("sheet %q: %w", d.Name, err)
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("sheet %q: unexpected status %d", d.Name, status)
	}

	text, err := unwrapBody(body)
	if err != nil {
		return "", fmt.Errorf("sheet %q: %w", d.Name, err)
	}
	return text, nil
}

func (f *CSVExportFetcher) exportURL(d sheet.Descriptor) string {
	q := url.Values{}
	q.Set("nocache", uuid.NewString())

	if d.GID != "" {
		q.Set("format", "csv")
		q.Set("gid", d.GID)
		return fmt.Sprintf("%s/spreadsheets/d/%s/export?%s", f.BaseURL, f.SpreadsheetID, q.Encode())
	}

	// Legacy name-addressed export, only when no gid is configured.
	q.Set("tqx", "out:csv")
	q.Set("sheet", d.Name)
	return fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?%s", f.BaseURL, f.SpreadsheetID, q.Encode())
}

// unwrapBody rejects response bodies that are not CSV payloads. Error pages
// arrive as HTML with a 200 status, and the visualization-query endpoint
// can answer with a JSON wrapper instead of CSV; both are malformed here,
// never passed through as data.
func unwrapBody(body []byte) (string, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))

	probe := bytes.TrimLeft(body, " \t\r\n")
	switch {
	case bytes.HasPrefix(probe, []byte("<")):
		return "", fmt.Errorf("response is an HTML document, not CSV")
	case bytes.HasPrefix(probe, []byte(")]}'")),
		bytes.HasPrefix(probe, []byte("/*O_o*/")),
		bytes.HasPrefix(probe, []byte("google.visualization")):
		return "", fmt.Errorf("response is a visualization-query wrapper, not CSV")
	}
	return string(body), nil
}
