// internal/daily/daily.go
//
// Deterministic "daily country" selection.
//   - DateKey:     YYYY-MM-DD in UTC; the day boundary for everyone.
//   - TargetIndex: HMAC-SHA256(salt, DateKey) folded into [0, n).
//
// The salt comes from config.DeriveKey so the daily sequence is not guessable
// from the public dataset order.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// TargetIndex returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD) % n.
func TargetIndex(date time.Time, salt []byte, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, salt)
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Number is the 1-based day count since the first daily puzzle, for display.
func Number(date time.Time) int {
	epoch := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	d := date.UTC().Truncate(24 * time.Hour)
	if d.Before(epoch) {
		return 0
	}
	return int(d.Sub(epoch).Hours()/24) + 1
}
