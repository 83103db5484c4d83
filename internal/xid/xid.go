// Package xid generates prefixed, time-ordered identifiers for ledger
// rows (stl for settlements, amd for amendments, vsl for vessels).
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns an id of the form prefix-<unixnano>-<8 random bytes hex>.
// The timestamp component keeps ids sortable by creation order; the
// random tail guards against collisions within a nanosecond.
func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
