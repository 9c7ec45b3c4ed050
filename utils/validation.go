package utils

import (
	"github.com/google/uuid"
)

// IsUUID accepts the canonical 36-character hyphenated form only.
func IsUUID(value string) bool {
	if len(value) != 36 {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}
