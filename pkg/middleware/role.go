package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/hrm-import/pkg/composables"
)

// WithRole copies the role an upstream gateway has already verified from header
// into the context. Requests without the header carry no role.
func WithRole(header string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := strings.TrimSpace(r.Header.Get(header))
			if header == "" || role == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithRole(r.Context(), strings.ToLower(role))))
		})
	}
}
