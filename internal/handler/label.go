package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkordes/labelcase/internal/auth"
	"github.com/pkordes/labelcase/internal/domain"
)

// Label is the JSON representation of a label.
type Label struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// LabelList is the body of GET /labels.
type LabelList struct {
	Data       []Label    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ImportLabelsRequest is the body of POST /labels/import.
type ImportLabelsRequest struct {
	Names []string `json:"names" validate:"required,min=1,max=1000,dive,required,max=200"`
}

// ImportLabelsResponse reports the labels stored by an import.
type ImportLabelsResponse struct {
	Data []Label `json:"data"`
}

// ListLabels handles GET /labels.
// The optional ?q= query parameter filters labels by slug prefix; ?page= and
// ?limit= page the result (defaults: page=1, limit=20, max=100).
func (s *Server) ListLabels(w http.ResponseWriter, r *http.Request) {
	q, err := bindListLabelsParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	params := domain.NewPaginationParams(q.Page, q.Limit)

	labels, total, err := s.labels.ListPaged(r.Context(), derefString(q.Q), params)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	data := make([]Label, len(labels))
	for i, l := range labels {
		data[i] = labelToResponse(l)
	}
	writeJSON(w, http.StatusOK, LabelList{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// GetLabel handles GET /labels/{id}.
func (s *Server) GetLabel(w http.ResponseWriter, r *http.Request) {
	id, err := labelIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	l, err := s.labels.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "label not found")
		return
	}
	writeJSON(w, http.StatusOK, labelToResponse(l))
}

// CreateLabel handles POST /labels.
// The body is either a JSON string holding the name or an object with name
// and an optional slug.
func (s *Server) CreateLabel(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeLabelPayload(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	l, err := s.labels.Create(r.Context(), payload)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, labelToResponse(l))
}

// UpdateLabel handles PUT /labels/{id}.
func (s *Server) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	id, err := labelIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	payload, err := decodeLabelPayload(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	l, err := s.labels.Update(r.Context(), id, payload)
	if err != nil {
		s.writeError(w, r, err, "label not found")
		return
	}
	writeJSON(w, http.StatusOK, labelToResponse(l))
}

// ImportLabels handles POST /labels/import.
// Names are stored as given; only the post-save hooks see them. On a partial
// failure the error is reported and the labels stored so far stay stored.
func (s *Server) ImportLabels(w http.ResponseWriter, r *http.Request) {
	// Import stores names without the pre-persist filters, so only catalog
	// managers may call it.
	if _, err := auth.Require(r.Context(), auth.CapManageCatalog); err != nil {
		s.writeError(w, r, err, "")
		return
	}

	var req ImportLabelsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(fieldErrors(err)))
		return
	}

	labels, err := s.labels.Import(r.Context(), req.Names)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	data := make([]Label, len(labels))
	for i, l := range labels {
		data[i] = labelToResponse(l)
	}
	writeJSON(w, http.StatusCreated, ImportLabelsResponse{Data: data})
}

// decodeLabelPayload reads a label candidate: a bare JSON string is returned
// as a string, an object as a *domain.LabelInput.
func decodeLabelPayload(r *http.Request) (any, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("request body could not be read")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("request body is required")
	}

	if raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, fmt.Errorf("invalid JSON string body")
		}
		return name, nil
	}

	in := &domain.LabelInput{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(in); err != nil {
		return nil, fmt.Errorf("invalid label body: %w", err)
	}
	return in, nil
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// labelToResponse converts a domain.Label to its JSON representation.
func labelToResponse(l domain.Label) Label {
	return Label{
		ID:        l.ID,
		Name:      l.Name,
		Slug:      l.Slug,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// derefString returns the pointed-to string or "" for nil.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
