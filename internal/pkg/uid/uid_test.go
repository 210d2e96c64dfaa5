package uid

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUID_Generate(t *testing.T) {
	// Arrange
	gen := NewUUID()

	// Act
	a, b := gen.Generate(), gen.Generate()

	// Assert
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	parsed, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("expected valid uuid, got %q: %v", a, err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected uuid v7, got v%d", parsed.Version())
	}
}

func TestSnowflake_GenerateIsIncreasing(t *testing.T) {
	// Arrange
	gen, err := NewSnowflakeNode(1)
	if err != nil {
		t.Fatalf("new snowflake: %v", err)
	}

	// Act
	prev := gen.Generate()
	for range 1000 {
		next := gen.Generate()

		// Assert
		if next <= prev {
			t.Fatalf("expected increasing ids, got %d after %d", next, prev)
		}
		prev = next
	}
}

func TestNewSnowflakeNode_RejectsOutOfRange(t *testing.T) {
	if _, err := NewSnowflakeNode(1 << 20); err == nil {
		t.Fatalf("expected error for out of range node")
	}
}
