// Package hooks is the host's event-subscription capability.
//
// Components register filters (which may transform a value before the host
// acts on it) and actions (which observe something that already happened).
// Registration happens at process start; dispatch happens inside request
// handling, so reads are guarded by an RWMutex and never hold it while a
// callback runs.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// PrePersistFilter transforms a label candidate before the host validates and
// stores it. The payload is either bare text or a structured value carrying a
// name (see domain.LabelInputFrom).
type PrePersistFilter func(ctx context.Context, payload any) any

// LabelListener observes a label after it was created or updated.
type LabelListener func(ctx context.Context, labelID int64)

// ItemListener observes a catalog item after it was saved.
type ItemListener func(ctx context.Context, itemID uuid.UUID)

// FormFieldFilter rewrites a raw form field value before the host reads it.
type FormFieldFilter func(field, value string) string

// BulkActionFunc executes a bulk action against the selected label ids and
// returns how many labels it changed.
type BulkActionFunc func(ctx context.Context, labelIDs []int64) (int, error)

// BulkAction is an entry in the label-list bulk action menu.
type BulkAction struct {
	// Name is the machine identifier posted back by the form.
	Name string
	// Title is the human-readable menu text.
	Title string
	// ResultParam is the query parameter the redirect carries the count in.
	ResultParam string
	Run         BulkActionFunc
}

// ErrDuplicateBulkAction is returned when two components register a bulk
// action with the same name.
var ErrDuplicateBulkAction = errors.New("bulk action already registered")

// Registry holds every registered hook. The zero value is not usable; call New.
type Registry struct {
	mu sync.RWMutex

	prePersist   []PrePersistFilter
	labelCreated []LabelListener
	labelUpdated []LabelListener
	itemSaved    []ItemListener
	formFields   []FormFieldFilter
	bulkActions  map[string]BulkAction
	bulkOrder    []string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{bulkActions: make(map[string]BulkAction)}
}

// OnLabelPrePersist registers a filter run on every label candidate.
func (r *Registry) OnLabelPrePersist(f PrePersistFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prePersist = append(r.prePersist, f)
}

// OnLabelCreated registers an action fired after a label is inserted.
func (r *Registry) OnLabelCreated(f LabelListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labelCreated = append(r.labelCreated, f)
}

// OnLabelUpdated registers an action fired after a label is edited.
func (r *Registry) OnLabelUpdated(f LabelListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labelUpdated = append(r.labelUpdated, f)
}

// OnItemSaved registers an action fired after an item or its label set is saved.
func (r *Registry) OnItemSaved(f ItemListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.itemSaved = append(r.itemSaved, f)
}

// OnFormField registers a filter applied to raw form fields.
func (r *Registry) OnFormField(f FormFieldFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formFields = append(r.formFields, f)
}

// RegisterBulkAction adds a bulk action to the label-list menu.
func (r *Registry) RegisterBulkAction(a BulkAction) error {
	if a.Name == "" || a.Run == nil {
		return fmt.Errorf("hooks.Registry.RegisterBulkAction: name and run are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bulkActions[a.Name]; ok {
		return fmt.Errorf("hooks.Registry.RegisterBulkAction: %q: %w", a.Name, ErrDuplicateBulkAction)
	}
	r.bulkActions[a.Name] = a
	r.bulkOrder = append(r.bulkOrder, a.Name)
	return nil
}

// ApplyLabelPrePersist runs every pre-persist filter in registration order,
// feeding each the previous filter's output.
func (r *Registry) ApplyLabelPrePersist(ctx context.Context, payload any) any {
	r.mu.RLock()
	filters := r.prePersist
	r.mu.RUnlock()

	for _, f := range filters {
		payload = f(ctx, payload)
	}
	return payload
}

// FireLabelCreated notifies every label-created listener.
func (r *Registry) FireLabelCreated(ctx context.Context, labelID int64) {
	r.mu.RLock()
	listeners := r.labelCreated
	r.mu.RUnlock()

	for _, f := range listeners {
		f(ctx, labelID)
	}
}

// FireLabelUpdated notifies every label-updated listener.
func (r *Registry) FireLabelUpdated(ctx context.Context, labelID int64) {
	r.mu.RLock()
	listeners := r.labelUpdated
	r.mu.RUnlock()

	for _, f := range listeners {
		f(ctx, labelID)
	}
}

// FireItemSaved notifies every item-saved listener.
func (r *Registry) FireItemSaved(ctx context.Context, itemID uuid.UUID) {
	r.mu.RLock()
	listeners := r.itemSaved
	r.mu.RUnlock()

	for _, f := range listeners {
		f(ctx, itemID)
	}
}

// ApplyFormField runs every form-field filter over one field value.
func (r *Registry) ApplyFormField(field, value string) string {
	r.mu.RLock()
	filters := r.formFields
	r.mu.RUnlock()

	for _, f := range filters {
		value = f(field, value)
	}
	return value
}

// BulkActions returns the registered bulk actions in registration order.
func (r *Registry) BulkActions() []BulkAction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]BulkAction, 0, len(r.bulkOrder))
	for _, name := range r.bulkOrder {
		out = append(out, r.bulkActions[name])
	}
	return out
}

// BulkAction looks up a registered bulk action by name.
func (r *Registry) BulkAction(name string) (BulkAction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.bulkActions[name]
	return a, ok
}
