package router

import (
	"net/http"
	"strings"

	"github.com/krishignan/krishignan/internal/pkg/config"
	"github.com/samber/lo"
)

// underMaintenance reports whether route matches an entry of app.maintenance.endpoints.
// An entry ending in "*" matches every route with that prefix.
func underMaintenance(entries []string, route string) bool {
	return lo.SomeBy(entries, func(e string) bool {
		e = strings.TrimSpace(e)
		if prefix, ok := strings.CutSuffix(e, "*"); ok {
			return strings.HasPrefix(route, prefix)
		}
		return e != "" && e == route
	})
}

// middlewareMaintenance answers 503 for routes under maintenance. Entries are
// read per request so a config reload applies without a restart.
func middlewareMaintenance(cfg config.Config) Middleware {
	if cfg == nil {
		return nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if underMaintenance(cfg.GetArray("app.maintenance.endpoints"), matchedRoutePath(r)) {
				w.Header().Set("Retry-After", "300")
				writeJSON(w, failureBody{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
