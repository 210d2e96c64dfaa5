package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/goerror"
)

const (
	opRequest = "request"
	opVerify  = "verify"
	opReset   = "reset"
)

type (
	RequestResetInput struct {
		Email string `validate:"required,email"`
	}

	RequestResetOutput struct {
		Email     string
		ExpiresAt time.Time
		Token     string
	}
)

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (s *Usecase) RequestReset(ctx context.Context, in RequestResetInput) (*RequestResetOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestReset")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.repoAccount.GetAccountByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password reset requested for unknown account", "email", in.Email)
		return nil, goerror.NewBusiness(msgAccountNotFound, goerror.CodeNotFound, fieldReason, ReasonAccountNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.holdResend(ctx, in.Email); err != nil {
		return nil, err
	}

	ticket, err := s.store.Issue(ctx, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue reset code", "email", in.Email, "error", err)
		s.releaseResend(ctx, in.Email)
		return nil, goerror.NewServer(err)
	}
	add(ctx, s.metrics.issued, 1)

	if err := s.dispatcher.SendResetCode(ctx, ResetCodeDelivery{
		Email:     acc.Email,
		FullName:  acc.FullName,
		Code:      ticket.Code,
		ExpiresAt: ticket.ExpiresAt,
		ValidFor:  ticket.ExpiresAt.Sub(s.clock.Now()),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to dispatch reset code", "email", in.Email, "error", err)
		s.releaseResend(ctx, in.Email)
		return nil, goerror.NewServerWith(err, msgDeliveryFailed, goerror.CodeUnavailable, fieldReason, ReasonDeliveryFailed)
	}

	return &RequestResetOutput{
		Email:     in.Email,
		ExpiresAt: ticket.ExpiresAt,
		Token:     ticket.Token,
	}, nil
}

func resendKey(email string) string {
	return "resend:" + email
}

func (s *Usecase) holdResend(ctx context.Context, email string) error {
	if s.cooldown == nil {
		return nil
	}

	ok, err := s.cooldown.Allow(ctx, resendKey(email), s.cfg.GetSecond("modules.recovery.resend_cooldown_seconds"))
	if err != nil {
		// Fail open.
		slog.WarnContext(ctx, "failed to check resend cooldown", "email", email, "error", err)
		return nil
	}
	if !ok {
		add(ctx, s.metrics.failed, 1, reasonAttr(ReasonResendCooldown, opRequest)...)
		return goerror.NewBusiness(msgResendCooldown, goerror.CodeTooManyRequest, fieldReason, ReasonResendCooldown)
	}

	return nil
}

// releaseResend reopens the window after a failed send so the user can retry at once.
func (s *Usecase) releaseResend(ctx context.Context, email string) {
	if s.cooldown == nil {
		return
	}

	if err := s.cooldown.Reset(ctx, resendKey(email)); err != nil {
		slog.WarnContext(ctx, "failed to reset resend cooldown", "email", email, "error", err)
	}
}
