package csv

import "strings"

const bom = "\ufeff"

// CleanHeader normalizes a header cell: strips a UTF-8 BOM (present on the
// first cell of many exports) and surrounding whitespace.
func CleanHeader(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, bom))
}

// CleanCell strips spreadsheet artifacts from a data cell: the ="..."
// formula wrapper some tools emit to force text formatting, plus
// surrounding whitespace.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}
