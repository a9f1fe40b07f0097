// Package ids provides local identifiers for records that have not been persisted yet.
package ids

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TempPrefix marks identifiers that were minted locally and never persisted.
// Persisted identifiers are UUIDs and can never carry it.
const TempPrefix = "tmp_"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns a new ULID string (26 chars).
func NewULID(now time.Time) string {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

func NewTemp() string {
	return TempPrefix + NewULID(time.Now())
}

func IsTemp(id string) bool {
	return strings.HasPrefix(id, TempPrefix)
}
