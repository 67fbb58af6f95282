// Package snapshot assembles per-sheet record sets into the versioned
// snapshot document that is this system's sole output artifact.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/sheetsnap/internal/sheet"
)

// SchemaVersion tags the artifact layout. Bump when the document shape
// changes in a way consumers must know about.
const SchemaVersion = "2"

// Meta carries the derived metadata for one run. All temporal fields are
// computed from a single captured instant.
type Meta struct {
	GeneratedAt            string `json:"generated_at"`
	SourceSheetID          string `json:"source_sheet_id"`
	ReportingQuarter       string `json:"reporting_quarter"`
	ReportingYear          int    `json:"reporting_year"`
	ReportingQuarterNumber int    `json:"reporting_quarter_number"`
	SchemaVersion          string `json:"schema_version"`
}

// StaticConfig is the small configuration block passed through to
// consumers verbatim.
type StaticConfig struct {
	MapEnabled          bool   `json:"map_enabled"`
	SharePreviewEnabled bool   `json:"share_preview_enabled"`
	DefaultLocationID   string `json:"default_location_id"`
}

// Document is the final artifact of one acquisition run. Immutable after
// assembly. Every configured sheet key is present in Sheets even when its
// fetch failed; the shape is never partial.
type Document struct {
	Meta   Meta         `json:"meta"`
	Sheets *SheetSet    `json:"sheets"`
	Config StaticConfig `json:"config"`
}

// SheetSet holds per-sheet results in configuration order. Key order in an
// object carries no meaning for consumers, but a stable order keeps the
// serialized artifact reproducible run to run.
type SheetSet struct {
	keys    []string
	results map[string]sheet.Result
}

func NewSheetSet() *SheetSet {
	return &SheetSet{results: make(map[string]sheet.Result)}
}

// Set stores the result for key. The first Set of a key fixes its position.
// A nil result is stored as an empty one so it serializes as [] not null.
func (s *SheetSet) Set(key string, r sheet.Result) {
	if _, ok := s.results[key]; !ok {
		s.keys = append(s.keys, key)
	}
	if r == nil {
		r = sheet.Result{}
	}
	s.results[key] = r
}

func (s *SheetSet) Get(key string) (sheet.Result, bool) {
	r, ok := s.results[key]
	return r, ok
}

// Keys returns the sheet keys in configuration order.
func (s *SheetSet) Keys() []string {
	return append([]string(nil), s.keys...)
}

func (s *SheetSet) Len() int {
	return len(s.keys)
}

// MarshalJSON serializes the set as a JSON object with keys in
// configuration order.
func (s *SheetSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		rb, err := json.Marshal(s.results[key])
		if err != nil {
			return nil, fmt.Errorf("marshal sheet %q: %w", key, err)
		}
		buf.Write(rb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a set from its serialized form. Insertion order of
// the underlying object is not recoverable from encoding/json, so keys are
// re-ordered by the decoder's map iteration; only consumers that re-serialize
// a decoded document see a difference, and none do today.
func (s *SheetSet) UnmarshalJSON(data []byte) error {
	m := make(map[string]sheet.Result)
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	s.keys = s.keys[:0]
	s.results = make(map[string]sheet.Result, len(m))
	for k, v := range m {
		s.Set(k, v)
	}
	return nil
}
