package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// ContentDigest returns the sha256 hex digest of the RFC 8785 canonical
// form of the sheets object. Meta is excluded on purpose: two runs over
// identical source content produce identical digests regardless of their
// generated_at timestamps, which is what makes the digest useful as a
// change indicator.
func (d *Document) ContentDigest() (string, error) {
	raw, err := json.Marshal(d.Sheets)
	if err != nil {
		return "", fmt.Errorf("marshal sheets: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize sheets: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
