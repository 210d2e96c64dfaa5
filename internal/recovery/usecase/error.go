package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/krishignan/krishignan/internal/pkg/goerror"
	"github.com/krishignan/krishignan/internal/recovery/session"
	"go.opentelemetry.io/otel/attribute"
)

const (
	ReasonAccountNotFound = "ACCOUNT_NOT_FOUND"
	ReasonSessionNotFound = "OTP_NOT_FOUND"
	ReasonExpired         = "OTP_EXPIRED"
	ReasonMismatch        = "OTP_MISMATCH"
	ReasonNotVerified     = "OTP_NOT_VERIFIED"
	ReasonTooManyAttempts = "OTP_ATTEMPTS_EXCEEDED"
	ReasonResendCooldown  = "OTP_RESEND_COOLDOWN"
	ReasonDeliveryFailed  = "DELIVERY_FAILED"
	ReasonUpdateFailed    = "UPDATE_FAILED"

	fieldReason = "reason"

	msgAccountNotFound = "User with this email not found"
	msgUserNotFound    = "User not found"
	msgSessionNotFound = "OTP expired or not found. Please request a new one."
	msgExpired         = "OTP has expired. Please request a new one."
	msgSessionExpired  = "Session expired. Please request a new OTP."
	msgMismatch        = "Invalid OTP"
	msgNotVerified     = "OTP not verified. Please verify OTP first."
	msgTooManyAttempts = "Too many invalid attempts. Please request a new OTP."
	msgResendCooldown  = "Please wait before requesting another OTP."
	msgDeliveryFailed  = "Failed to send OTP email. Please try again later."
	msgUpdateFailed    = "Failed to reset password. Please try again."
)

// errAccountMissing is returned by the consume callback when the account vanished
// between verification and reset. Retrying cannot help, so the session is discarded.
var errAccountMissing = fmt.Errorf("recovery: account missing: %w", session.ErrDiscard)

// mapSessionError turns store failures into client-facing errors. op selects the
// wording, since the same state reads differently at verify and reset time.
func (s *Usecase) mapSessionError(ctx context.Context, op string, err error) error {
	var reason string
	var out error

	switch {
	case errors.Is(err, session.ErrNotFound):
		reason = ReasonSessionNotFound
		msg := msgSessionNotFound
		if op == opReset {
			msg = msgSessionExpired
		}
		out = goerror.NewBusiness(msg, goerror.CodeGone, fieldReason, reason)

	case errors.Is(err, session.ErrExpired):
		reason = ReasonExpired
		msg := msgExpired
		if op == opReset {
			msg = msgSessionExpired
		}
		out = goerror.NewBusiness(msg, goerror.CodeGone, fieldReason, reason)

	case errors.Is(err, session.ErrMismatch):
		reason = ReasonMismatch
		out = goerror.NewBusiness(msgMismatch, goerror.CodeUnauthorized, fieldReason, reason)

	case errors.Is(err, session.ErrNotVerified):
		reason = ReasonNotVerified
		out = goerror.NewBusiness(msgNotVerified, goerror.CodePreconditionRequired, fieldReason, reason)

	case errors.Is(err, session.ErrTooManyAttempts):
		reason = ReasonTooManyAttempts
		out = goerror.NewBusiness(msgTooManyAttempts, goerror.CodeTooManyRequest, fieldReason, reason)

	default:
		slog.ErrorContext(ctx, "failed to access reset session", "op", op, "error", err)
		return goerror.NewServer(err)
	}

	add(ctx, s.metrics.failed, 1, reasonAttr(reason, op)...)
	return out
}

func reasonAttr(reason, op string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String("reason", reason), attribute.String("op", op)}
}
