package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/labelcase/internal/domain"
)

// Item is the JSON representation of a catalog item.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Labels    []string  `json:"labels"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemRequest is the body of POST /items and PUT /items/{id}.
// Omitting labels on update keeps the current label set.
type ItemRequest struct {
	Name   string   `json:"name" validate:"required,max=200"`
	Labels []string `json:"labels" validate:"omitempty,max=100,dive,max=200"`
}

// CreateItem handles POST /items.
func (s *Server) CreateItem(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeItemRequest(w, r)
	if !ok {
		return
	}
	item, err := s.items.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, itemToResponse(item))
}

// GetItem handles GET /items/{id}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	item, err := s.items.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(item))
}

// UpdateItem handles PUT /items/{id}.
func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	in, ok := s.decodeItemRequest(w, r)
	if !ok {
		return
	}
	item, err := s.items.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(item))
}

// decodeItemRequest decodes and validates an ItemRequest, writing a 422 on
// failure.
func (s *Server) decodeItemRequest(w http.ResponseWriter, r *http.Request) (domain.ItemInput, bool) {
	var req ItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return domain.ItemInput{}, false
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(fieldErrors(err)))
		return domain.ItemInput{}, false
	}
	return domain.ItemInput{Name: req.Name, Labels: req.Labels}, true
}

// itemToResponse converts a domain.Item to its JSON representation.
func itemToResponse(it domain.Item) Item {
	labels := it.Labels
	if labels == nil {
		labels = []string{}
	}
	return Item{
		ID:        it.ID,
		Name:      it.Name,
		Labels:    labels,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}
