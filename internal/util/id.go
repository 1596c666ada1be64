package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns an opaque identifier, optionally namespaced by prefix
// (for example "usr_3f2c...").
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return raw
	}
	return prefix + "_" + raw
}
