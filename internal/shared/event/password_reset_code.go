package event

import "time"

const PasswordResetCodeDestination string = "password_reset_code"
const PasswordResetCodeConsumerNotification string = "password_reset_code_notification"

// PasswordResetCodeMessage carries a reset code to the notification module.
// SealedCode is encrypted with the shared event secret; the plain code never
// travels through the broker.
type PasswordResetCodeMessage struct {
	EventID    int64     `json:"event_id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	SealedCode string    `json:"sealed_code"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// PasswordResetCodePurpose binds sealed codes to this event type.
const PasswordResetCodePurpose = "password-reset-event"
