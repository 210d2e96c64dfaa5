package strcase

import "testing"

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"Email":       "email",
		"NewPassword": "new_password",
		"UserID":      "user_id",
		"HTTPServer":  "http_server",
		"OTP":         "otp",
		"Code2FA":     "code2_fa",
	}

	for in, want := range tests {
		if got := ToLowerSnake(in); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
}
