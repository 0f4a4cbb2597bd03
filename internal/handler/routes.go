package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/labelcase/spec"
)

// Handler returns a chi router serving every route of s.
// Routes whose dependency is nil in Deps are not mounted.
func Handler(s *Server) http.Handler {
	r := chi.NewRouter()
	s.Mount(r)
	return r
}

// Mount registers the routes of s on r, so callers can add their own
// middleware stack first.
func (s *Server) Mount(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	if s.db != nil {
		r.Get("/readyz", s.GetReady)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	if s.labels != nil {
		r.Route("/labels", func(r chi.Router) {
			r.Get("/", s.ListLabels)
			r.Post("/", s.CreateLabel)
			r.Post("/import", s.ImportLabels)
			r.Get("/{id}", s.GetLabel)
			r.Put("/{id}", s.UpdateLabel)
		})
	}

	if s.items != nil {
		r.Route("/items", func(r chi.Router) {
			r.Post("/", s.CreateItem)
			r.Get("/{id}", s.GetItem)
			r.Put("/{id}", s.UpdateItem)
		})
	}

	if s.converter != nil && s.tokens != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Get("/labels-lowercase", s.GetAdminPage)
			r.Post("/labels-lowercase", s.ConvertAllLabels)
			r.Post("/ajax", s.AdminAjax)
			if s.labels != nil {
				r.Post("/inline-save", s.InlineSave)
			}
			if s.bulk != nil {
				r.Get("/labels/bulk-actions", s.ListBulkActions)
				r.Post("/labels/bulk", s.RunBulkAction)
			}
		})
	}
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}

// labelIDParam binds the {id} path parameter as a label id.
func labelIDParam(r *http.Request) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return 0, fmt.Errorf("invalid format for parameter id: %w", err)
	}
	return id, nil
}

// itemIDParam binds the {id} path parameter as an item id.
func itemIDParam(r *http.Request) (uuid.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid format for parameter id: %w", err)
	}
	return id, nil
}

// listLabelsParams are the optional query parameters of GET /labels.
type listLabelsParams struct {
	Q     *string
	Page  *int
	Limit *int
}

func bindListLabelsParams(r *http.Request) (listLabelsParams, error) {
	var p listLabelsParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "q", q, &p.Q); err != nil {
		return p, fmt.Errorf("invalid format for parameter q: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &p.Page); err != nil {
		return p, fmt.Errorf("invalid format for parameter page: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &p.Limit); err != nil {
		return p, fmt.Errorf("invalid format for parameter limit: %w", err)
	}
	return p, nil
}
