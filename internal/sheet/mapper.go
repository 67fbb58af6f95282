package sheet

import (
	"strings"

	"github.com/JonMunkholm/sheetsnap/internal/csv"
)

// MapRecords pairs the first row (headers) with each subsequent row.
//
// Headers are cleaned of BOM and whitespace; data cells go through
// csv.CleanCell, which strips the ="..." formula wrapper and surrounding
// whitespace (interior whitespace, including embedded newlines, is
// preserved). A blank header drops its column entirely: neither key nor
// value is recorded, so unlabeled columns vanish silently. A record is
// emitted only when at least one included field has a non-blank value.
// Fewer than two rows (no header or no data) yields an empty result, not
// an error. Source row order is preserved.
func MapRecords(rows [][]string) []Record {
	if len(rows) < 2 {
		return []Record{}
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = csv.CleanHeader(h)
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(headers))
		hasValue := false
		for j, raw := range row {
			if j >= len(headers) {
				// no header for this position
				break
			}
			if headers[j] == "" {
				continue
			}
			v := csv.CleanCell(raw)
			rec[headers[j]] = v
			if v != "" {
				hasValue = true
			}
		}
		if hasValue {
			records = append(records, rec)
		}
	}
	return records
}

// FilterByKey retains only records whose primaryKey field is present and
// non-blank after trimming. This is the single semantic completeness gate:
// rows that parsed fine but belong to no named entity are excluded here,
// keeping the tokenizer purely syntactic.
func FilterByKey(records []Record, primaryKey string) Result {
	out := make(Result, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec[primaryKey]) != "" {
			out = append(out, rec)
		}
	}
	return out
}
