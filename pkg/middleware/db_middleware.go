package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/hrm-import/pkg/composables"
	"github.com/iota-uz/hrm-import/pkg/repo"
)

// WithPool makes the pool reachable through composables.UsePool and
// composables.UseTx. Transactions are opened by the services that need them.
func WithPool(pool repo.DB) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if pool == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}
