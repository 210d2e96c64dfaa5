// Package validator validates request structs and reports field errors keyed
// by their snake_case JSON names.
package validator

// Validator validates a struct according to its `validate` tags.
type Validator interface {
	Validate(data any) error
}
