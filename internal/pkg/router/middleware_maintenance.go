package router

import (
	"net/http"
	"slices"

	"github.com/shandysiswandi/mailblast/internal/pkg/config"
)

// middlewareMaintenance rejects routes listed in app.maintenance.endpoints.
// The list is read per request so config reloads apply without a restart.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg != nil && slices.Contains(cfg.GetArray("app.maintenance.endpoints"), matchedRoutePath(r)) {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
