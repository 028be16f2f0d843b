package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
)

// Recover turns a handler panic into a JSON 500.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log := logging.FromContext(r.Context(), logger)
				log.Error("panic in handler", "panic", rec, "path", r.URL.Path, "stack", string(debug.Stack()))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"}); err != nil {
					log.Error("failed to encode response", "err", err)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
