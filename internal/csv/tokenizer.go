// Package csv implements the row tokenizer for sheet exports.
//
// Sheet CSV exports are messy enough (embedded newlines, stray carriage
// returns, unterminated quotes from truncated responses) that we parse
// defensively: structural oddities degrade, they never fail. encoding/csv
// is deliberately not used here because it rejects exactly the malformed
// inputs we need to survive.
package csv

import "strings"

// Tokenize converts raw delimited text into ordered rows of raw fields.
//
// Quoting follows the usual rules: a double quote toggles quoted state,
// two consecutive quotes inside a quoted field emit one literal quote,
// commas and newlines inside quotes are field content. Carriage returns
// are discarded everywhere, including inside quoted fields. A row that is
// a single whitespace-only field is dropped at this stage. An unterminated
// quote is closed at end of input.
func Tokenize(text string) [][]string {
	var (
		rows   [][]string
		fields []string
		field  strings.Builder
		quoted bool
	)

	endField := func() {
		fields = append(fields, field.String())
		field.Reset()
	}
	endRow := func() {
		endField()
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			fields = nil
			return
		}
		rows = append(rows, fields)
		fields = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			if quoted && i+1 < len(text) && text[i+1] == '"' {
				field.WriteByte('"')
				i++
			} else {
				quoted = !quoted
			}
		case c == ',' && !quoted:
			endField()
		case c == '\n' && !quoted:
			endRow()
		case c == '\r':
			// dropped unconditionally
		default:
			field.WriteByte(c)
		}
	}

	// Trailing row without a final newline.
	if field.Len() > 0 || len(fields) > 0 || quoted {
		endRow()
	}

	return rows
}
