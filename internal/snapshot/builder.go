package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/sheetsnap/internal/csv"
	"github.com/JonMunkholm/sheetsnap/internal/fetch"
	"github.com/JonMunkholm/sheetsnap/internal/logging"
	"github.com/JonMunkholm/sheetsnap/internal/sheet"
	"golang.org/x/sync/errgroup"
)

// Config holds everything one acquisition run needs. It is an explicit
// value, not process state, so multiple builders with different
// configurations can coexist in one process.
type Config struct {
	SourceSheetID     string
	Sheets            []sheet.Descriptor
	DefaultPrimaryKey string
	Static            StaticConfig
}

// Builder orchestrates one acquisition run: fan out all sheet fetches,
// join at a single barrier, then assemble the document.
type Builder struct {
	cfg     Config
	fetcher fetch.Fetcher

	// Clock supplies the single instant all metadata derives from.
	// Defaults to time.Now; tests pin it.
	Clock func() time.Time
}

func NewBuilder(cfg Config, fetcher fetch.Fetcher) *Builder {
	return &Builder{cfg: cfg, fetcher: fetcher, Clock: time.Now}
}

// Build runs every configured sheet's fetch-and-normalize pipeline
// concurrently and assembles the snapshot document. A failure in one
// sheet's pipeline never aborts the others: it is logged with the sheet's
// identity and recorded as an empty result, so the document ships with
// partial data rather than not at all.
func (b *Builder) Build(ctx context.Context) *Document {
	now := b.Clock().UTC()

	// One result slot per sheet; the merge below happens only after every
	// fetch has settled, so no slot is ever written concurrently with a read.
	results := make([]sheet.Result, len(b.cfg.Sheets))

	var g errgroup.Group
	for i, d := range b.cfg.Sheets {
		g.Go(func() error {
			results[i] = b.acquire(ctx, d)
			return nil
		})
	}
	// acquire never returns an error; the group is purely a join barrier.
	_ = g.Wait()

	set := NewSheetSet()
	for i, d := range b.cfg.Sheets {
		set.Set(d.Key(), results[i])
	}

	year, number := reportingPeriod(now)
	return &Document{
		Meta: Meta{
			GeneratedAt:            now.Format(time.RFC3339),
			SourceSheetID:          b.cfg.SourceSheetID,
			ReportingQuarter:       fmt.Sprintf("%dQ%d", year, number),
			ReportingYear:          year,
			ReportingQuarterNumber: number,
			SchemaVersion:          SchemaVersion,
		},
		Sheets: set,
		Config: b.cfg.Static,
	}
}

// acquire runs the full pipeline for one sheet. All failures are absorbed
// here and surface only as an empty result plus a log entry.
func (b *Builder) acquire(ctx context.Context, d sheet.Descriptor) sheet.Result {
	logger := logging.WithFields(ctx, "sheet", d.Name, "gid", d.GID)

	raw, err := b.fetcher.Fetch(ctx, d)
	if err != nil {
		logger.Warn("sheet fetch failed, recording empty result", "error", err)
		return sheet.Result{}
	}

	rows := csv.Tokenize(raw)
	records := sheet.MapRecords(rows)

	key := d.PrimaryKey
	if key == "" {
		key = b.cfg.DefaultPrimaryKey
	}
	filtered := sheet.FilterByKey(records, key)

	logger.Debug("sheet acquired",
		"rows", len(rows),
		"records", len(records),
		"retained", len(filtered),
	)
	return filtered
}

// reportingPeriod derives the quarter from a single captured instant:
// ceil(month/3), always in {1,2,3,4}.
func reportingPeriod(t time.Time) (year, number int) {
	return t.Year(), (int(t.Month()) + 2) / 3
}
