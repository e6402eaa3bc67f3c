// Package utils holds small helpers shared across layers.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// NewID returns a short random identifier for live connections. Uniqueness is
// best-effort; a collision surfaces as a duplicate-connection registration
// error and the dialer simply reconnects.
func NewID() string {
	var buf [12]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Fallback when crypto/rand is unavailable.
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf[:])
}
