package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/labelcase/internal/domain"
	"github.com/pkordes/labelcase/internal/hooks"
	"github.com/pkordes/labelcase/internal/repo"
)

// labelResolver turns a label name into a stored label, creating it when needed.
// *LabelService satisfies it.
type labelResolver interface {
	UpsertByName(ctx context.Context, name string) (domain.Label, error)
}

// ItemService is the host data API for catalog items.
// Every save fires item-saved after the item and its label links are stored.
type ItemService struct {
	items  repo.ItemRepo
	labels labelResolver
	hooks  *hooks.Registry
}

// NewItemService constructs an ItemService. Label names are resolved through
// labels, and item-saved is dispatched through h.
func NewItemService(items repo.ItemRepo, labels labelResolver, h *hooks.Registry) *ItemService {
	return &ItemService{items: items, labels: labels, hooks: h}
}

// Create stores a new item with its labels and fires item-saved.
func (s *ItemService) Create(ctx context.Context, in domain.ItemInput) (domain.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Item{}, fmt.Errorf("service.ItemService.Create: %w: item name is required", domain.ErrValidation)
	}

	item, err := s.items.Create(ctx, name)
	if err != nil {
		return domain.Item{}, fmt.Errorf("service.ItemService.Create: %w", err)
	}
	if in.Labels != nil {
		if err := s.replaceLabels(ctx, item.ID, in.Labels); err != nil {
			return domain.Item{}, fmt.Errorf("service.ItemService.Create: %w", err)
		}
	}
	s.hooks.FireItemSaved(ctx, item.ID)

	return s.GetByID(ctx, item.ID)
}

// Update overwrites the item name and, when in.Labels is non-nil, its label
// set, then fires item-saved.
func (s *ItemService) Update(ctx context.Context, id uuid.UUID, in domain.ItemInput) (domain.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Item{}, fmt.Errorf("service.ItemService.Update: %w: item name is required", domain.ErrValidation)
	}

	if err := s.items.UpdateName(ctx, id, name); err != nil {
		return domain.Item{}, fmt.Errorf("service.ItemService.Update: %w", err)
	}
	if in.Labels != nil {
		if err := s.replaceLabels(ctx, id, in.Labels); err != nil {
			return domain.Item{}, fmt.Errorf("service.ItemService.Update: %w", err)
		}
	}
	s.hooks.FireItemSaved(ctx, id)

	return s.GetByID(ctx, id)
}

// GetByID returns an item with its label names.
func (s *ItemService) GetByID(ctx context.Context, id uuid.UUID) (domain.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return domain.Item{}, fmt.Errorf("service.ItemService.GetByID: %w", err)
	}
	return item, nil
}

// LabelNames returns the names of the labels attached to an item.
func (s *ItemService) LabelNames(ctx context.Context, id uuid.UUID) ([]string, error) {
	names, err := s.items.LabelNames(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.ItemService.LabelNames: %w", err)
	}
	return names, nil
}

// SetLabels replaces the item's label set with names and fires item-saved.
func (s *ItemService) SetLabels(ctx context.Context, id uuid.UUID, names []string) error {
	if err := s.replaceLabels(ctx, id, names); err != nil {
		return fmt.Errorf("service.ItemService.SetLabels: %w", err)
	}
	s.hooks.FireItemSaved(ctx, id)
	return nil
}

// replaceLabels resolves names to labels and swaps the item's links.
// Blank names are skipped.
func (s *ItemService) replaceLabels(ctx context.Context, id uuid.UUID, names []string) error {
	ids := make([]int64, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		l, err := s.labels.UpsertByName(ctx, n)
		if err != nil {
			return err
		}
		ids = append(ids, l.ID)
	}
	return s.items.ReplaceLabels(ctx, id, ids)
}
