// Package domain contains the core data types for labelcase.
// This package has few external dependencies and is imported by every other
// internal package (repo, service, handler, lowercase).
package domain

import (
	"fmt"
	"time"
)

// Label is a catalog taxonomy term (a product tag).
// ID is stable across renames. Slug is regenerated whenever Name changes.
type Label struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LabelInput is the structured candidate payload for creating or editing a
// label. An empty Slug asks the host to derive one from Name.
type LabelInput struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// LabelInputFrom converts a candidate payload into a LabelInput.
// Hosts receive candidates either as bare text or as a structured value, so
// string, LabelInput, *LabelInput and name-keyed maps are all accepted.
func LabelInputFrom(payload any) (LabelInput, error) {
	switch p := payload.(type) {
	case string:
		return LabelInput{Name: p}, nil
	case LabelInput:
		return p, nil
	case *LabelInput:
		if p == nil {
			return LabelInput{}, fmt.Errorf("%w: label payload is nil", ErrValidation)
		}
		return *p, nil
	case map[string]string:
		return LabelInput{Name: p["name"], Slug: p["slug"]}, nil
	case map[string]any:
		in := LabelInput{}
		if v, ok := p["name"].(string); ok {
			in.Name = v
		}
		if v, ok := p["slug"].(string); ok {
			in.Slug = v
		}
		return in, nil
	default:
		return LabelInput{}, fmt.Errorf("%w: unsupported label payload %T", ErrValidation, payload)
	}
}
