package common

import (
	"github.com/google/uuid"
)

// NewID generates a new unique identifier
func NewID() string {
	return uuid.New().String()
}
