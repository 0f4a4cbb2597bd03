package middleware

import (
	"net/http"
	"strings"
)

// fieldFilter is the part of *hooks.Registry FilterFormFields needs.
type fieldFilter interface {
	ApplyFormField(field, value string) string
}

// FilterFormFields parses url-encoded form bodies and runs every posted value
// through the registered form-field filters, so handlers reading
// r.PostFormValue or r.FormValue see the filtered values. Other requests pass
// through untouched.
func FilterFormFields(filters fieldFilter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
				next.ServeHTTP(w, r)
				return
			}
			if err := r.ParseForm(); err != nil {
				http.Error(w, "malformed form body", http.StatusBadRequest)
				return
			}

			for field, values := range r.PostForm {
				for i, v := range values {
					values[i] = filters.ApplyFormField(field, v)
				}
				// r.Form holds the body values first, then the query values.
				if merged := r.Form[field]; len(merged) >= len(values) {
					copy(merged, values)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
