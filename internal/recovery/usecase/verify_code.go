package usecase

import (
	"context"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/goerror"
)

type (
	VerifyCodeInput struct {
		Email string `validate:"required,email"`
		Code  string `validate:"required,otp"`
		Token string
	}

	VerifyCodeOutput struct {
		Email     string
		ExpiresAt time.Time
		Token     string
	}
)

func (s *Usecase) VerifyCode(ctx context.Context, in VerifyCodeInput) (*VerifyCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyCode")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ticket, err := s.store.Verify(ctx, in.Email, in.Code, in.Token)
	if err != nil {
		return nil, s.mapSessionError(ctx, opVerify, err)
	}
	add(ctx, s.metrics.verified, 1)

	return &VerifyCodeOutput{
		Email:     in.Email,
		ExpiresAt: ticket.ExpiresAt,
		Token:     ticket.Token,
	}, nil
}
