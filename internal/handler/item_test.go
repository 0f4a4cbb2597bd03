package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/labelcase/internal/domain"
	"github.com/pkordes/labelcase/internal/handler"
)

// ---- mock ItemServicer -------------------------------------------------------

type mockItemServicer struct {
	create  func(ctx context.Context, in domain.ItemInput) (domain.Item, error)
	update  func(ctx context.Context, id uuid.UUID, in domain.ItemInput) (domain.Item, error)
	getByID func(ctx context.Context, id uuid.UUID) (domain.Item, error)
}

func (m *mockItemServicer) Create(ctx context.Context, in domain.ItemInput) (domain.Item, error) {
	return m.create(ctx, in)
}
func (m *mockItemServicer) Update(ctx context.Context, id uuid.UUID, in domain.ItemInput) (domain.Item, error) {
	return m.update(ctx, id, in)
}
func (m *mockItemServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Item, error) {
	return m.getByID(ctx, id)
}

// compile-time check: mockItemServicer must satisfy handler.ItemServicer.
var _ handler.ItemServicer = (*mockItemServicer)(nil)

func newItemHTTPHandler(svc handler.ItemServicer) http.Handler {
	return handler.Handler(handler.NewServer(handler.Deps{Items: svc, Log: discard}))
}

func itemFixture(id uuid.UUID, labels ...string) domain.Item {
	now := time.Now().UTC()
	return domain.Item{ID: id, Name: "Tent", Labels: labels, CreatedAt: now, UpdatedAt: now}
}

// ---- POST /items -------------------------------------------------------------

func TestCreateItem_201(t *testing.T) {
	svc := &mockItemServicer{
		create: func(_ context.Context, in domain.ItemInput) (domain.Item, error) {
			assert.Equal(t, domain.ItemInput{Name: "Tent", Labels: []string{"Red", "blue"}}, in)
			return itemFixture(uuid.New(), "blue", "red"), nil
		},
	}

	rec := do(newItemHTTPHandler(svc), http.MethodPost, "/items", `{"name":"Tent","labels":["Red","blue"]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body handler.Item
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []string{"blue", "red"}, body.Labels)
}

func TestCreateItem_MissingName_422(t *testing.T) {
	rec := do(newItemHTTPHandler(&mockItemServicer{}), http.MethodPost, "/items", `{"labels":["x"]}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "name: required", body.Error.Message)
}

// ---- GET /items/{id} ---------------------------------------------------------

func TestGetItem_200_EmptyLabels(t *testing.T) {
	id := uuid.New()
	svc := &mockItemServicer{
		getByID: func(_ context.Context, got uuid.UUID) (domain.Item, error) {
			assert.Equal(t, id, got)
			return itemFixture(id), nil
		},
	}

	rec := do(newItemHTTPHandler(svc), http.MethodGet, "/items/"+id.String(), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"labels":[]`)
}

func TestGetItem_BadID_400(t *testing.T) {
	rec := do(newItemHTTPHandler(&mockItemServicer{}), http.MethodGet, "/items/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetItem_404(t *testing.T) {
	svc := &mockItemServicer{
		getByID: func(_ context.Context, _ uuid.UUID) (domain.Item, error) {
			return domain.Item{}, domain.ErrNotFound
		},
	}

	rec := do(newItemHTTPHandler(svc), http.MethodGet, "/items/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "item not found")
}

// ---- PUT /items/{id} ---------------------------------------------------------

func TestUpdateItem_OmittedLabelsStayNil(t *testing.T) {
	id := uuid.New()
	svc := &mockItemServicer{
		update: func(_ context.Context, got uuid.UUID, in domain.ItemInput) (domain.Item, error) {
			assert.Equal(t, id, got)
			assert.Nil(t, in.Labels, "omitted labels keep the current set")
			return itemFixture(id, "red"), nil
		},
	}

	rec := do(newItemHTTPHandler(svc), http.MethodPut, "/items/"+id.String(), `{"name":"Tent"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}
