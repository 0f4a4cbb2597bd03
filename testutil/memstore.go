package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/labelcase/internal/domain"
)

// MemLabels is an in-memory repo.LabelRepo with the same uniqueness rules as
// the labels table. It counts writes so tests can assert that no-op paths
// never touch storage.
type MemLabels struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]domain.Label
	Creates int
	Updates int

	// FailUpdate, when set, is consulted before every Update.
	FailUpdate func(id int64, name string) error
}

// NewMemLabels returns an empty store.
func NewMemLabels() *MemLabels {
	return &MemLabels{rows: make(map[int64]domain.Label)}
}

// Seed inserts names verbatim, bypassing every hook, and returns the rows.
// Slugs are the lowercased names with spaces turned into dashes.
func (m *MemLabels) Seed(names ...string) []domain.Label {
	out := make([]domain.Label, 0, len(names))
	for _, n := range names {
		slug := strings.ReplaceAll(strings.ToLower(n), " ", "-")
		l, err := m.insert(n, slug)
		if err != nil {
			panic("testutil.MemLabels.Seed: " + err.Error())
		}
		out = append(out, l)
	}
	return out
}

// Names returns every stored name ordered by id.
func (m *MemLabels) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.sortedIDs()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.rows[id].Name)
	}
	return out
}

func (m *MemLabels) Create(_ context.Context, name, slug string) (domain.Label, error) {
	l, err := m.insert(name, slug)
	if err != nil {
		return domain.Label{}, err
	}
	m.mu.Lock()
	m.Creates++
	m.mu.Unlock()
	return l, nil
}

func (m *MemLabels) GetByID(_ context.Context, id int64) (domain.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return domain.Label{}, fmt.Errorf("memlabels: %w", domain.ErrNotFound)
	}
	return l, nil
}

func (m *MemLabels) GetByName(_ context.Context, name string) (domain.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.rows {
		if l.Name == name {
			return l, nil
		}
	}
	return domain.Label{}, fmt.Errorf("memlabels: %w", domain.ErrNotFound)
}

func (m *MemLabels) Update(_ context.Context, id int64, name, slug string) (domain.Label, error) {
	if m.FailUpdate != nil {
		if err := m.FailUpdate(id, name); err != nil {
			return domain.Label{}, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return domain.Label{}, fmt.Errorf("memlabels: %w", domain.ErrNotFound)
	}
	if err := m.checkUnique(id, name, slug); err != nil {
		return domain.Label{}, err
	}
	l.Name, l.Slug, l.UpdatedAt = name, slug, time.Now()
	m.rows[id] = l
	m.Updates++
	return l, nil
}

func (m *MemLabels) ListAfter(_ context.Context, afterID int64, limit int) ([]domain.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Label{}
	for _, id := range m.sortedIDs() {
		if id <= afterID {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, m.rows[id])
	}
	return out, nil
}

func (m *MemLabels) ListPaged(_ context.Context, prefix string, p domain.PaginationParams) ([]domain.Label, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := []domain.Label{}
	for _, id := range m.sortedIDs() {
		if strings.HasPrefix(m.rows[id].Slug, prefix) {
			matched = append(matched, m.rows[id])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := int64(len(matched))
	start := p.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *MemLabels) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *MemLabels) insert(name, slug string) (domain.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkUnique(0, name, slug); err != nil {
		return domain.Label{}, err
	}
	m.nextID++
	now := time.Now()
	l := domain.Label{ID: m.nextID, Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
	m.rows[l.ID] = l
	return l, nil
}

func (m *MemLabels) checkUnique(id int64, name, slug string) error {
	for otherID, other := range m.rows {
		if otherID == id {
			continue
		}
		if other.Name == name || other.Slug == slug {
			return fmt.Errorf("memlabels: %q: %w", name, domain.ErrConflict)
		}
	}
	return nil
}

func (m *MemLabels) sortedIDs() []int64 {
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MemItems is an in-memory repo.ItemRepo that resolves label names through
// the MemLabels it was built with.
type MemItems struct {
	mu       sync.Mutex
	labels   *MemLabels
	items    map[uuid.UUID]domain.Item
	links    map[uuid.UUID][]int64
	Replaces int
}

// NewMemItems returns an empty item store joined to labels.
func NewMemItems(labels *MemLabels) *MemItems {
	return &MemItems{
		labels: labels,
		items:  make(map[uuid.UUID]domain.Item),
		links:  make(map[uuid.UUID][]int64),
	}
}

func (m *MemItems) Create(_ context.Context, name string) (domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	it := domain.Item{ID: uuid.New(), Name: name, Labels: []string{}, CreatedAt: now, UpdatedAt: now}
	m.items[it.ID] = it
	return it, nil
}

func (m *MemItems) GetByID(ctx context.Context, id uuid.UUID) (domain.Item, error) {
	m.mu.Lock()
	it, ok := m.items[id]
	m.mu.Unlock()
	if !ok {
		return domain.Item{}, fmt.Errorf("memitems: %w", domain.ErrNotFound)
	}
	names, err := m.LabelNames(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}
	it.Labels = names
	return it, nil
}

func (m *MemItems) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return fmt.Errorf("memitems: %w", domain.ErrNotFound)
	}
	it.Name = name
	m.items[id] = it
	return nil
}

func (m *MemItems) LabelNames(ctx context.Context, id uuid.UUID) ([]string, error) {
	m.mu.Lock()
	ids := append([]int64(nil), m.links[id]...)
	m.mu.Unlock()

	names := []string{}
	for _, labelID := range ids {
		l, err := m.labels.GetByID(ctx, labelID)
		if err != nil {
			return nil, err
		}
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemItems) ReplaceLabels(_ context.Context, id uuid.UUID, labelIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("memitems: %w", domain.ErrNotFound)
	}
	seen := make(map[int64]bool, len(labelIDs))
	links := []int64{}
	for _, l := range labelIDs {
		if !seen[l] {
			seen[l] = true
			links = append(links, l)
		}
	}
	m.links[id] = links
	m.Replaces++
	return nil
}
