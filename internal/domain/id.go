package domain

import (
	"strings"

	"github.com/google/uuid"
)

// NewUUIDHex generates a random UUID in the 32 character hex form stored in
// the uuid columns.
func NewUUIDHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
