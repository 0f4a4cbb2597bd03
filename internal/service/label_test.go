package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/labelcase/internal/domain"
	"github.com/pkordes/labelcase/internal/hooks"
	"github.com/pkordes/labelcase/internal/repo"
	"github.com/pkordes/labelcase/internal/service"
	"github.com/pkordes/labelcase/testutil"
)

// compile-time checks: the in-memory stores must satisfy the repo interfaces.
var (
	_ repo.LabelRepo = (*testutil.MemLabels)(nil)
	_ repo.ItemRepo  = (*testutil.MemItems)(nil)
)

// ---- mock LabelRepo ----------------------------------------------------------

type mockLabelRepo struct {
	create    func(ctx context.Context, name, slug string) (domain.Label, error)
	getByID   func(ctx context.Context, id int64) (domain.Label, error)
	getByName func(ctx context.Context, name string) (domain.Label, error)
	update    func(ctx context.Context, id int64, name, slug string) (domain.Label, error)
	listAfter func(ctx context.Context, afterID int64, limit int) ([]domain.Label, error)
	listPaged func(ctx context.Context, prefix string, p domain.PaginationParams) ([]domain.Label, int64, error)
	count     func(ctx context.Context) (int64, error)
}

func (m *mockLabelRepo) Create(ctx context.Context, name, slug string) (domain.Label, error) {
	return m.create(ctx, name, slug)
}
func (m *mockLabelRepo) GetByID(ctx context.Context, id int64) (domain.Label, error) {
	return m.getByID(ctx, id)
}
func (m *mockLabelRepo) GetByName(ctx context.Context, name string) (domain.Label, error) {
	return m.getByName(ctx, name)
}
func (m *mockLabelRepo) Update(ctx context.Context, id int64, name, slug string) (domain.Label, error) {
	return m.update(ctx, id, name, slug)
}
func (m *mockLabelRepo) ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.Label, error) {
	return m.listAfter(ctx, afterID, limit)
}
func (m *mockLabelRepo) ListPaged(ctx context.Context, prefix string, p domain.PaginationParams) ([]domain.Label, int64, error) {
	return m.listPaged(ctx, prefix, p)
}
func (m *mockLabelRepo) Count(ctx context.Context) (int64, error) {
	return m.count(ctx)
}

// compile-time check
var _ repo.LabelRepo = (*mockLabelRepo)(nil)

// ---- Create ------------------------------------------------------------------

func TestLabelService_Create_DerivesSlug(t *testing.T) {
	store := testutil.NewMemLabels()
	svc := service.NewLabelService(store, hooks.New())

	got, err := svc.Create(context.Background(), "Rocky Mountains")

	require.NoError(t, err)
	assert.Equal(t, "Rocky Mountains", got.Name, "the host itself does not fold names")
	assert.Equal(t, "rocky-mountains", got.Slug)
}

func TestLabelService_Create_AppliesPrePersistFilters(t *testing.T) {
	reg := hooks.New()
	reg.OnLabelPrePersist(func(_ context.Context, p any) any {
		in, _ := domain.LabelInputFrom(p)
		in.Name = strings.ToUpper(in.Name)
		return in
	})
	svc := service.NewLabelService(testutil.NewMemLabels(), reg)

	got, err := svc.Create(context.Background(), map[string]any{"name": "loud"})

	require.NoError(t, err)
	assert.Equal(t, "LOUD", got.Name)
}

func TestLabelService_Create_FiresCreatedAndRereads(t *testing.T) {
	store := testutil.NewMemLabels()
	reg := hooks.New()
	reg.OnLabelCreated(func(ctx context.Context, id int64) {
		_, err := store.Update(ctx, id, "rewritten", "rewritten")
		require.NoError(t, err)
	})
	svc := service.NewLabelService(store, reg)

	got, err := svc.Create(context.Background(), "Original")

	require.NoError(t, err)
	assert.Equal(t, "rewritten", got.Name, "caller sees the row as the hooks left it")
}

func TestLabelService_Create_Validation(t *testing.T) {
	svc := service.NewLabelService(&mockLabelRepo{}, hooks.New())

	for _, payload := range []any{"   ", "!!! ---", 42} {
		_, err := svc.Create(context.Background(), payload)
		assert.ErrorIs(t, err, domain.ErrValidation, "payload %v", payload)
	}
}

func TestLabelService_Create_Conflict(t *testing.T) {
	store := testutil.NewMemLabels()
	store.Seed("red")
	svc := service.NewLabelService(store, hooks.New())

	_, err := svc.Create(context.Background(), "red")

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLabelService_Create_SuffixesTakenSlug(t *testing.T) {
	store := testutil.NewMemLabels()
	store.Seed("Red")
	svc := service.NewLabelService(store, hooks.New())

	got, err := svc.Create(context.Background(), "red")

	require.NoError(t, err)
	assert.Equal(t, "red", got.Name)
	assert.Equal(t, "red-2", got.Slug)
}

func TestLabelService_Create_ExplicitSlugNotSuffixed(t *testing.T) {
	store := testutil.NewMemLabels()
	store.Seed("Red")
	svc := service.NewLabelService(store, hooks.New())

	_, err := svc.Create(context.Background(), domain.LabelInput{Name: "red", Slug: "red"})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ---- Update ------------------------------------------------------------------

func TestLabelService_Update_RegeneratesSlugOnRename(t *testing.T) {
	store := testutil.NewMemLabels()
	l := store.Seed("Old Name")[0]
	var fired []int64
	reg := hooks.New()
	reg.OnLabelUpdated(func(_ context.Context, id int64) { fired = append(fired, id) })
	svc := service.NewLabelService(store, reg)

	got, err := svc.Update(context.Background(), l.ID, domain.LabelInput{Name: "New Name"})

	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
	assert.Equal(t, "new-name", got.Slug)
	assert.Equal(t, []int64{l.ID}, fired)
}

func TestLabelService_Update_KeepsSlugWhenNameUnchanged(t *testing.T) {
	store := testutil.NewMemLabels()
	l := store.Seed("same")[0]
	_, err := store.Update(context.Background(), l.ID, "same", "custom-slug")
	require.NoError(t, err)
	svc := service.NewLabelService(store, hooks.New())

	got, err := svc.Update(context.Background(), l.ID, "same")

	require.NoError(t, err)
	assert.Equal(t, "custom-slug", got.Slug)
}

func TestLabelService_Update_UnchangedSkipsWriteAndEvent(t *testing.T) {
	store := testutil.NewMemLabels()
	l := store.Seed("same")[0]
	var fired []int64
	reg := hooks.New()
	reg.OnLabelUpdated(func(_ context.Context, id int64) { fired = append(fired, id) })
	svc := service.NewLabelService(store, reg)

	got, err := svc.Update(context.Background(), l.ID, domain.LabelInput{Name: "same"})

	require.NoError(t, err)
	assert.Equal(t, l.Name, got.Name)
	assert.Equal(t, l.Slug, got.Slug)
	assert.Zero(t, store.Updates)
	assert.Empty(t, fired)
}

func TestLabelService_Update_NotFound(t *testing.T) {
	svc := service.NewLabelService(&mockLabelRepo{
		getByID: func(_ context.Context, _ int64) (domain.Label, error) {
			return domain.Label{}, domain.ErrNotFound
		},
	}, hooks.New())

	_, err := svc.Update(context.Background(), 7, "x")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- UpsertByName ------------------------------------------------------------

func TestLabelService_UpsertByName_ReusesExisting(t *testing.T) {
	store := testutil.NewMemLabels()
	existing := store.Seed("blue")[0]
	svc := service.NewLabelService(store, hooks.New())

	got, err := svc.UpsertByName(context.Background(), " blue ")

	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	assert.Zero(t, store.Creates)
}

func TestLabelService_UpsertByName_LooksUpFilteredName(t *testing.T) {
	store := testutil.NewMemLabels()
	existing := store.Seed("red")[0]
	reg := hooks.New()
	reg.OnLabelPrePersist(func(_ context.Context, p any) any { return strings.ToLower(p.(string)) })
	svc := service.NewLabelService(store, reg)

	got, err := svc.UpsertByName(context.Background(), "RED")

	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
}

func TestLabelService_UpsertByName_CreatesMissing(t *testing.T) {
	store := testutil.NewMemLabels()
	svc := service.NewLabelService(store, hooks.New())

	got, err := svc.UpsertByName(context.Background(), "green")

	require.NoError(t, err)
	assert.Equal(t, "green", got.Name)
	assert.Equal(t, 1, store.Creates)
}

func TestLabelService_UpsertByName_LookupError(t *testing.T) {
	boom := errors.New("boom")
	svc := service.NewLabelService(&mockLabelRepo{
		getByName: func(_ context.Context, _ string) (domain.Label, error) { return domain.Label{}, boom },
	}, hooks.New())

	_, err := svc.UpsertByName(context.Background(), "x")

	assert.ErrorIs(t, err, boom)
}

// ---- Import ------------------------------------------------------------------

func TestLabelService_Import_BypassesPrePersist(t *testing.T) {
	store := testutil.NewMemLabels()
	reg := hooks.New()
	reg.OnLabelPrePersist(func(_ context.Context, _ any) any {
		t.Fatal("import must not run pre-persist filters")
		return nil
	})
	var created []int64
	reg.OnLabelCreated(func(_ context.Context, id int64) { created = append(created, id) })
	svc := service.NewLabelService(store, reg)

	got, err := svc.Import(context.Background(), []string{"Alpha", "BETA"})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Alpha", "BETA"}, store.Names())
	assert.Len(t, created, 2)
}

func TestLabelService_Import_StopsAtFirstError(t *testing.T) {
	store := testutil.NewMemLabels()
	store.Seed("dup")
	svc := service.NewLabelService(store, hooks.New())

	got, err := svc.Import(context.Background(), []string{"one", "dup", "three"})

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, got, 1)
}

// ---- listing -----------------------------------------------------------------

func TestLabelService_ListPaged_PrefixSlugged(t *testing.T) {
	var captured string
	svc := service.NewLabelService(&mockLabelRepo{
		listPaged: func(_ context.Context, prefix string, _ domain.PaginationParams) ([]domain.Label, int64, error) {
			captured = prefix
			return nil, 0, nil
		},
	}, hooks.New())

	got, total, err := svc.ListPaged(context.Background(), "Summer Sa", domain.NewPaginationParams(nil, nil))

	require.NoError(t, err)
	assert.Equal(t, "summer-sa", captured)
	assert.NotNil(t, got)
	assert.Zero(t, total)
}

func TestLabelService_Sample_FirstPageByName(t *testing.T) {
	store := testutil.NewMemLabels()
	store.Seed("c", "a", "b")
	svc := service.NewLabelService(store, hooks.New())

	got, err := svc.Sample(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
}
