package uid

import "github.com/google/uuid"

// UUID produces correlation IDs. Version 7 keeps them roughly time ordered in
// logs; version 4 is used only if v7 generation fails.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}

	return uuid.NewString()
}
