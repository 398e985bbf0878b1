// Package checksum computes version tags used for optimistic concurrency.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/starford/notely/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Note returns the version tag of n. It changes whenever the row is written.
func Note(n *models.Note) string {
	return Sum([]byte(n.ID + "|" + n.UpdatedAt.UTC().Format(time.RFC3339Nano)))
}
