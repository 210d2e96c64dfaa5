package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/krishignan/krishignan/internal/pkg/goerror"
)

type ResetPasswordInput struct {
	Email       string `validate:"required,email"`
	Code        string `validate:"required,otp"`
	NewPassword string `validate:"required,password"`
	Token       string
}

func (s *Usecase) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	err := s.store.Consume(ctx, in.Email, in.Code, in.Token, func(ctx context.Context) error {
		if err := s.applyNewPassword(ctx, in.Email, in.NewPassword); err != nil {
			return &applyError{err: err}
		}
		return nil
	})

	var failed *applyError
	switch {
	case err == nil:
		slog.InfoContext(ctx, "password reset completed", "email", in.Email)
		return nil

	case errors.Is(err, errAccountMissing):
		add(ctx, s.metrics.failed, 1, reasonAttr(ReasonAccountNotFound, opReset)...)
		return goerror.NewBusiness(msgUserNotFound, goerror.CodeNotFound, fieldReason, ReasonAccountNotFound)

	case errors.As(err, &failed):
		slog.ErrorContext(ctx, "failed to apply new password", "email", in.Email, "error", err)
		add(ctx, s.metrics.failed, 1, reasonAttr(ReasonUpdateFailed, opReset)...)
		return goerror.NewServerWith(err, msgUpdateFailed, goerror.CodeInternal, fieldReason, ReasonUpdateFailed)

	default:
		return s.mapSessionError(ctx, opReset, err)
	}
}

// applyError marks a failure raised by the credential update itself, as
// opposed to one the store hit before or after running it.
type applyError struct{ err error }

func (e *applyError) Error() string { return e.err.Error() }
func (e *applyError) Unwrap() error { return e.err }

func (s *Usecase) applyNewPassword(ctx context.Context, email, password string) error {
	acc, err := s.repoAccount.GetAccountByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		return errAccountMissing
	}
	if err != nil {
		return err
	}

	hashed, err := s.password.Hash(password)
	if err != nil {
		return err
	}

	return s.repoAccount.UpdatePasswordHash(ctx, acc.ID, string(hashed), s.clock.Now())
}
