package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/krishignan/krishignan/internal/pkg/stacktrace"
)

// panicStack prefers this module's frames and falls back to the full dump.
func panicStack(raw []byte) any {
	if frames := stacktrace.InternalPaths(raw); len(frames) > 0 {
		return frames
	}
	return string(raw)
}

// middlewareRecoverer turns a handler panic into a 500 envelope. Aborts raised
// with http.ErrAbortHandler are passed through to net/http.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			switch rvr := recover(); {
			case rvr == nil:
				return
			case rvr == http.ErrAbortHandler: //nolint:errorlint // sentinel compared by identity
				panic(rvr)
			default:
				slog.ErrorContext(r.Context(), "recovered handler panic",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rvr,
					"stack", panicStack(debug.Stack()),
				)
				writeJSON(w, failureBody{Message: "Internal server error"}, http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
