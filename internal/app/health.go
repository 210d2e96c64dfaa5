package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/clock"
)

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func healthHandler(clk clock.Clocker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(healthResponse{
			Status:    "OK",
			Message:   "Server is running smoothly",
			Timestamp: clk.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			slog.ErrorContext(r.Context(), "failed to encode health response", "error", err)
		}
	})
}
