package router

import (
	"net/http"

	"github.com/shandysiswandi/gootp/internal/pkg/config"
)

// middlewareMaintenance answers 503 for the route patterns listed under
// app.maintenance.endpoints, or for every route when app.maintenance.all is set.
func middlewareMaintenance(cfg config.Config) Middleware {
	if cfg == nil {
		return nil
	}

	all := cfg.GetBool("app.maintenance.all")
	blocked := make(map[string]struct{})
	for _, route := range cfg.GetArray("app.maintenance.endpoints") {
		blocked[route] = struct{}{}
	}

	if !all && len(blocked) == 0 {
		return nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			if _, ok := blocked[route]; ok || (all && route != "/health") {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
