package metrics

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestMiddleware counts every request served and every response with a
// status of 400 or above.
func RequestMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			m.IncRequests()
			// Handlers that never call WriteHeader answer 200
			if status := ww.Status(); status >= http.StatusBadRequest {
				m.IncErrors()
			}
		})
	}
}
