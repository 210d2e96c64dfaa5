package validator

import (
	"errors"
	"testing"
)

type resetInput struct {
	Email       string `validate:"required,email"`
	Code        string `validate:"required,otp"`
	NewPassword string `validate:"required,password"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	tests := []struct {
		name       string
		in         resetInput
		wantFields map[string]string
	}{
		{
			name: "valid",
			in:   resetInput{Email: "a@x.com", Code: "482913", NewPassword: "kerala-farms"},
		},
		{
			name: "code not six digits",
			in:   resetInput{Email: "a@x.com", Code: "48291a", NewPassword: "kerala-farms"},
			wantFields: map[string]string{
				"code": "Code must be exactly 6 digits",
			},
		},
		{
			name: "short password and bad email",
			in:   resetInput{Email: "nope", Code: "482913", NewPassword: "short"},
			wantFields: map[string]string{
				"email":        "Email must be a valid email address",
				"new_password": "NewPassword must be 8-72 characters",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := v.Validate(tt.in)

			// Assert
			if tt.wantFields == nil {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected V10ValidationError, got %T %v", err, err)
			}
			if len(verr.Values()) != len(tt.wantFields) {
				t.Fatalf("expected %d fields, got %v", len(tt.wantFields), verr.Values())
			}
			for k, want := range tt.wantFields {
				if got := verr.Values()[k]; got != want {
					t.Fatalf("field %s: expected %q, got %q", k, want, got)
				}
			}
		})
	}
}
