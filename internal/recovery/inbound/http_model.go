package inbound

import "time"

type RequestResetRequest struct {
	Email string `json:"email"`
}

type RequestResetResponse struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token,omitempty"`
}

func (RequestResetResponse) Message() string {
	return "OTP sent to your email"
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
	Token string `json:"token"`
}

type VerifyCodeResponse struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token,omitempty"`
}

func (VerifyCodeResponse) Message() string {
	return "OTP verified successfully"
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
	Token       string `json:"token"`
}

type ResetPasswordResponse struct{}

func (ResetPasswordResponse) Message() string {
	return "Password reset successful! You can now login with new password"
}
