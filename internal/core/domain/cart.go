package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

type CartLine struct {
	ProductID string
	Quantity  int
}

// Cart is the ordered sequence of lines submitted with a checkout attempt.
// It is transient; nothing here is persisted server-side.
type Cart []CartLine

// Fingerprint returns a stable hash of the cart content, used as the
// idempotency-key fallback when the client did not supply one. Lines are
// sorted by product so that reordering the same cart hashes identically.
func (c Cart) Fingerprint() string {
	lines := make([]string, len(c))
	for i, l := range c {
		lines[i] = fmt.Sprintf("%s:%d", l.ProductID, l.Quantity)
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(strings.Join(lines, "|")))
	return hex.EncodeToString(sum[:])
}
