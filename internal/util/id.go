package util

import "github.com/google/uuid"

// NewID returns a random UUID, matching the id format of documents written
// by earlier deployments.
func NewID() string {
	return uuid.NewString()
}
