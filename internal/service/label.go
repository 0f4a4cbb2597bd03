package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pkordes/labelcase/internal/domain"
	"github.com/pkordes/labelcase/internal/hooks"
	"github.com/pkordes/labelcase/internal/normalize"
	"github.com/pkordes/labelcase/internal/repo"
)

// LabelService is the host data API for labels.
//
// Create, Update and UpsertByName run the label-pre-persist filters before
// validating and storing a candidate, then fire label-created or
// label-updated. Import stores names as given and only fires label-created,
// modelling programmatic host paths that pre-persist filters never see.
type LabelService struct {
	labels repo.LabelRepo
	hooks  *hooks.Registry
}

// NewLabelService constructs a LabelService backed by the provided LabelRepo.
// Events are dispatched through h.
func NewLabelService(labels repo.LabelRepo, h *hooks.Registry) *LabelService {
	return &LabelService{labels: labels, hooks: h}
}

// Create filters, validates and stores a new label.
// payload is a bare name or a structured candidate (see domain.LabelInputFrom).
// The returned label is re-read after the created hooks ran, so it reflects
// any corrective write they made.
func (s *LabelService) Create(ctx context.Context, payload any) (domain.Label, error) {
	in, err := s.prepare(ctx, payload)
	if err != nil {
		return domain.Label{}, fmt.Errorf("service.LabelService.Create: %w", err)
	}
	created, err := s.insert(ctx, in)
	if err != nil {
		return domain.Label{}, fmt.Errorf("service.LabelService.Create: %w", err)
	}
	return created, nil
}

// Update filters, validates and stores new values for an existing label.
// An empty slug keeps the current slug when the name is unchanged and derives
// a fresh one from the name otherwise. An update that changes neither name nor
// slug is not written and fires no event.
func (s *LabelService) Update(ctx context.Context, id int64, payload any) (domain.Label, error) {
	in, err := s.prepare(ctx, payload)
	if err != nil {
		return domain.Label{}, fmt.Errorf("service.LabelService.Update: %w", err)
	}

	current, err := s.labels.GetByID(ctx, id)
	if err != nil {
		return domain.Label{}, fmt.Errorf("service.LabelService.Update: %w", err)
	}

	slug, derived := in.Slug, false
	if slug == "" {
		slug = current.Slug
		if in.Name != current.Name {
			slug, derived = normalize.Slug(in.Name), true
		}
	}

	// Nothing to store: no write and no updated event, so listeners that
	// re-save a label converge instead of re-entering.
	if in.Name == current.Name && slug == current.Slug {
		return current, nil
	}

	_, err = s.writeWithSlug(ctx, in.Name, slug, derived, func(slug string) (domain.Label, error) {
		return s.labels.Update(ctx, id, in.Name, slug)
	})
	if err != nil {
		return domain.Label{}, fmt.Errorf("service.LabelService.Update: %w", err)
	}
	s.hooks.FireLabelUpdated(ctx, id)

	return s.reload(ctx, id, "service.LabelService.Update")
}

// UpsertByName returns the label whose name matches the filtered candidate,
// creating it when none exists. Item label sets are resolved through this.
func (s *LabelService) UpsertByName(ctx context.Context, name string) (domain.Label, error) {
	in, err := s.prepare(ctx, name)
	if err != nil {
		return domain.Label{}, fmt.Errorf("service.LabelService.UpsertByName: %w", err)
	}

	existing, err := s.labels.GetByName(ctx, in.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Label{}, fmt.Errorf("service.LabelService.UpsertByName: %w", err)
	}

	created, err := s.insert(ctx, in)
	if err != nil {
		return domain.Label{}, fmt.Errorf("service.LabelService.UpsertByName: %w", err)
	}
	return created, nil
}

// Import stores each name verbatim, bypassing pre-persist filters, and fires
// label-created for every row. It stops at the first failure and returns the
// labels imported so far.
func (s *LabelService) Import(ctx context.Context, names []string) ([]domain.Label, error) {
	out := make([]domain.Label, 0, len(names))
	for _, raw := range names {
		in, err := validate(domain.LabelInput{Name: raw})
		if err != nil {
			return out, fmt.Errorf("service.LabelService.Import: %w", err)
		}
		created, err := s.insert(ctx, in)
		if err != nil {
			return out, fmt.Errorf("service.LabelService.Import: %q: %w", raw, err)
		}
		out = append(out, created)
	}
	return out, nil
}

// GetByID returns a single label.
func (s *LabelService) GetByID(ctx context.Context, id int64) (domain.Label, error) {
	l, err := s.labels.GetByID(ctx, id)
	if err != nil {
		return domain.Label{}, fmt.Errorf("service.LabelService.GetByID: %w", err)
	}
	return l, nil
}

// ListAfter returns the next keyset page of labels ordered by id.
func (s *LabelService) ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.Label, error) {
	labels, err := s.labels.ListAfter(ctx, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("service.LabelService.ListAfter: %w", err)
	}
	return labels, nil
}

// ListPaged returns one page of labels whose slug starts with the slug form of
// prefix, plus the total number of matches.
func (s *LabelService) ListPaged(ctx context.Context, prefix string, p domain.PaginationParams) ([]domain.Label, int64, error) {
	labels, total, err := s.labels.ListPaged(ctx, normalize.Slug(prefix), p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.LabelService.ListPaged: %w", err)
	}
	if labels == nil {
		labels = []domain.Label{}
	}
	return labels, total, nil
}

// Sample returns the first limit labels ordered by name.
func (s *LabelService) Sample(ctx context.Context, limit int) ([]domain.Label, error) {
	labels, _, err := s.labels.ListPaged(ctx, "", domain.PaginationParams{Page: 1, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("service.LabelService.Sample: %w", err)
	}
	return labels, nil
}

// Count returns the total number of labels.
func (s *LabelService) Count(ctx context.Context) (int64, error) {
	n, err := s.labels.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("service.LabelService.Count: %w", err)
	}
	return n, nil
}

// prepare runs the pre-persist filters over payload and validates the result.
func (s *LabelService) prepare(ctx context.Context, payload any) (domain.LabelInput, error) {
	in, err := domain.LabelInputFrom(s.hooks.ApplyLabelPrePersist(ctx, payload))
	if err != nil {
		return domain.LabelInput{}, err
	}
	return validate(in)
}

// insert stores a validated candidate, fires label-created and re-reads the row.
func (s *LabelService) insert(ctx context.Context, in domain.LabelInput) (domain.Label, error) {
	slug, derived := in.Slug, in.Slug == ""
	if derived {
		slug = normalize.Slug(in.Name)
	}

	created, err := s.writeWithSlug(ctx, in.Name, slug, derived, func(slug string) (domain.Label, error) {
		return s.labels.Create(ctx, in.Name, slug)
	})
	if err != nil {
		return domain.Label{}, err
	}
	s.hooks.FireLabelCreated(ctx, created.ID)

	return s.reload(ctx, created.ID, "insert")
}

// maxSlugSuffix bounds the -2, -3, ... suffixes tried for a derived slug.
const maxSlugSuffix = 100

// writeWithSlug calls write with slug and, when the slug was derived rather
// than supplied, retries with numeric suffixes while the slug collides with a
// different label. A collision on the name itself is returned as is.
func (s *LabelService) writeWithSlug(ctx context.Context, name, slug string, derived bool, write func(slug string) (domain.Label, error)) (domain.Label, error) {
	base := slug
	for n := 2; ; n++ {
		l, err := write(slug)
		if err == nil {
			return l, nil
		}
		if !derived || !errors.Is(err, domain.ErrConflict) || n > maxSlugSuffix {
			return domain.Label{}, err
		}
		if _, lookupErr := s.labels.GetByName(ctx, name); lookupErr == nil {
			return domain.Label{}, err
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

// reload re-reads a label after its hooks ran.
func (s *LabelService) reload(ctx context.Context, id int64, op string) (domain.Label, error) {
	l, err := s.labels.GetByID(ctx, id)
	if err != nil {
		return domain.Label{}, fmt.Errorf("%s: reload: %w", op, err)
	}
	return l, nil
}

// validate trims the candidate and enforces the name and slug rules.
func validate(in domain.LabelInput) (domain.LabelInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Name == "" {
		return domain.LabelInput{}, fmt.Errorf("%w: label name is required", domain.ErrValidation)
	}
	if in.Slug == "" && normalize.Slug(in.Name) == "" {
		return domain.LabelInput{}, fmt.Errorf("%w: label name must contain a letter or digit", domain.ErrValidation)
	}
	return in, nil
}
