package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewLogger_MasksAndEnriches(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := NewLogger(&buf, "krishignan", slog.LevelInfo, nil, []string{"otp", "Password"})
	ctx := SetCorrelationID(context.Background(), "cid-123")

	// Act
	logger.InfoContext(ctx, "reset requested",
		"email", "a@x.com",
		"otp", "482913",
		"body", map[string]any{"password": "secret", "nested": map[string]any{"otp": "1"}},
		"raw", `{"password":"secret","email":"a@x.com"}`,
	)

	// Assert
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["otp"] != "***" {
		t.Fatalf("expected otp masked, got %v", line["otp"])
	}
	if line["email"] != "a@x.com" {
		t.Fatalf("expected email kept, got %v", line["email"])
	}
	body := line["body"].(map[string]any)
	if body["password"] != "***" {
		t.Fatalf("expected nested password masked, got %v", body["password"])
	}
	if body["nested"].(map[string]any)["otp"] != "***" {
		t.Fatalf("expected deep otp masked, got %v", body["nested"])
	}
	if line["raw"] != `{"email":"a@x.com","password":"***"}` {
		t.Fatalf("expected json string masked, got %v", line["raw"])
	}
	if line["_cID"] != "cid-123" {
		t.Fatalf("expected correlation id, got %v", line["_cID"])
	}
	if line["service"] != "krishignan" {
		t.Fatalf("expected service attr, got %v", line["service"])
	}
	if _, ok := line["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", line)
	}
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "svc", parseLevel("warn"), nil, nil)

	logger.Info("hidden")

	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %s", buf.String())
	}
}

func TestCorrelationID_Absent(t *testing.T) {
	if got := GetCorrelationID(context.Background()); got != "" {
		t.Fatalf("expected empty correlation id, got %q", got)
	}
}
