// Package sheet defines the sheet descriptors and record normalization
// rules shared by the fetch and snapshot layers.
package sheet

import "strings"

// Descriptor identifies one logical sheet within the source collection.
// Descriptors are defined at configuration time and never mutated.
type Descriptor struct {
	// Name is the human-readable sheet name. Used for key derivation and,
	// when no GID is configured, as the fallback addressing token.
	Name string

	// GID is the stable sheet identifier. It survives renames, so it is
	// the preferred addressing token.
	GID string

	// PrimaryKey is the column whose non-blank presence marks a real data
	// row. When empty, the collection-wide default applies.
	PrimaryKey string
}

// Key returns the identity under which this sheet's results appear in the
// snapshot document: lower_snake_case of the display name.
func (d Descriptor) Key() string {
	key := strings.ToLower(strings.TrimSpace(d.Name))
	return strings.Join(strings.Fields(key), "_")
}

// Record is one normalized row, keyed by header label.
type Record map[string]string

// Result is the ordered record set for one sheet. A sheet whose fetch or
// parse failed contributes an empty (never nil) Result.
type Result []Record
