package inbound

import (
	"context"

	"github.com/krishignan/krishignan/internal/pkg/router"
	"github.com/krishignan/krishignan/internal/recovery/usecase"
)

type uc interface {
	RequestReset(ctx context.Context, in usecase.RequestResetInput) (*usecase.RequestResetOutput, error)
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) (*usecase.VerifyCodeOutput, error)
	ResetPassword(ctx context.Context, in usecase.ResetPasswordInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/password-reset/request", end.RequestReset)
	r.POST("/api/v1/password-reset/verify", end.VerifyCode)
	r.POST("/api/v1/password-reset/reset", end.ResetPassword)
}
