package helper

import (
	"github.com/google/uuid"
)

// NewID returns a time-ordered UUIDv7 string.
func NewID() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

