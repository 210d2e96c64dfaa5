package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/krishignan/krishignan/internal/pkg/config"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/router"
	"github.com/krishignan/krishignan/internal/pkg/uid"
)

func TestHealthHandler(t *testing.T) {
	// Arrange
	cfg, err := config.NewViperFromBytes("yaml", []byte("app: {}"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	r := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), Instrument: instrument.NewNoop()})
	r.Handle(http.MethodGet, "/api/health", healthHandler(clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))))
	rec := httptest.NewRecorder()

	// Act
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	// Assert
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "OK" || body.Message != "Server is running smoothly" || body.Timestamp != "2026-03-01T09:00:00Z" {
		t.Fatalf("unexpected body %+v", body)
	}
}
