package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/mail"
	"github.com/krishignan/krishignan/internal/shared/emailtpl"
)

type ConsumePasswordResetCodeInput struct {
	EventID    int64     `validate:"required,gt=0"`
	Email      string    `validate:"required,email"`
	FullName   string
	SealedCode string    `validate:"required"`
	ExpiresAt  time.Time `validate:"required"`
}

// ConsumePasswordResetCode mails a reset code. Events that can never succeed are
// dropped with a log line; only transport errors are returned so the broker redelivers.
func (s *Usecase) ConsumePasswordResetCode(ctx context.Context, in ConsumePasswordResetCodeInput) error {
	ctx, span := s.tracer.Start(ctx, "ConsumePasswordResetCode")
	defer span.End()

	if err := s.dep.Validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "event_id", in.EventID, "error", err)
		return nil
	}

	now := s.dep.Clock.Now()
	if !now.Before(in.ExpiresAt) {
		slog.WarnContext(ctx, "dropping expired password reset code", "event_id", in.EventID, "expires_at", in.ExpiresAt)
		return nil
	}

	code, err := s.dep.Opener.OpenString(in.SealedCode)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open sealed reset code", "event_id", in.EventID, "error", err)
		return nil
	}

	rendered, err := emailtpl.RenderPasswordReset(emailtpl.PasswordReset{
		FullName: in.FullName,
		Code:     code,
		ValidFor: in.ExpiresAt.Sub(now),
		IssuedAt: now,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render password reset email", "event_id", in.EventID, "error", err)
		return nil
	}

	if err := s.dep.RepoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  rendered.Subject,
		TextBody: rendered.Text,
		HTMLBody: rendered.HTML,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send password reset email", "event_id", in.EventID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "password reset email sent", "event_id", in.EventID)
	return nil
}
