package domain

import (
	"time"

	"github.com/google/uuid"
)

// Item is a catalog product that carries a set of labels.
// Labels are associated by name: the host resolves each name to a label,
// creating it when missing.
type Item struct {
	ID        uuid.UUID
	Name      string
	Labels    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemInput carries the mutable fields of an item from the HTTP layer to the
// item service. A nil Labels slice leaves the current label set untouched.
type ItemInput struct {
	Name   string
	Labels []string
}
