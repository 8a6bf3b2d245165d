package id

import (
	"strings"

	"github.com/google/uuid"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewRequestID fills Ax-Request-Id on responses when the caller did not send one.
func NewRequestID() string { return uuid.NewString() }
