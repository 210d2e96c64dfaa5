package inbound

import (
	"context"

	"github.com/krishignan/krishignan/internal/notification/usecase"
)

type uc interface {
	ConsumePasswordResetCode(ctx context.Context, in usecase.ConsumePasswordResetCodeInput) error
}
