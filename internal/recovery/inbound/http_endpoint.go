package inbound

import (
	"github.com/krishignan/krishignan/internal/pkg/router"
	"github.com/krishignan/krishignan/internal/recovery/usecase"
)

// HTTPEndpoint exposes the password reset flow.
type HTTPEndpoint struct {
	uc uc
}

// RequestReset issues a reset code and emails it.
// @Summary Request password reset code
// @Description Sends a 6-digit code to the account email. The code is never returned in the response.
// @Tags Recovery
// @Accept json
// @Produce json
// @Param request body RequestResetRequest true "Reset request payload"
// @Success 200 {object} router.successBody{data=RequestResetResponse} "Code sent"
// @Failure 400 {object} router.failureBody "Invalid request body"
// @Failure 404 {object} router.failureBody "Account not found"
// @Failure 422 {object} router.failureBody "Validation error"
// @Failure 429 {object} router.failureBody "Resend cooldown"
// @Failure 503 {object} router.failureBody "Email delivery failed"
// @Router /api/v1/password-reset/request [post]
func (h *HTTPEndpoint) RequestReset(r *router.Request) (any, error) {
	var req RequestResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestReset(r.Context(), usecase.RequestResetInput{
		Email: req.Email,
	})
	if err != nil {
		return nil, err
	}

	return RequestResetResponse{
		Email:     resp.Email,
		ExpiresAt: resp.ExpiresAt,
		Token:     resp.Token,
	}, nil
}

// VerifyCode checks a reset code.
// @Summary Verify password reset code
// @Tags Recovery
// @Accept json
// @Produce json
// @Param request body VerifyCodeRequest true "Verify payload"
// @Success 200 {object} router.successBody{data=VerifyCodeResponse} "Code verified"
// @Failure 401 {object} router.failureBody "Invalid code"
// @Failure 410 {object} router.failureBody "Code expired or not found"
// @Failure 429 {object} router.failureBody "Too many attempts"
// @Router /api/v1/password-reset/verify [post]
func (h *HTTPEndpoint) VerifyCode(r *router.Request) (any, error) {
	var req VerifyCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyCode(r.Context(), usecase.VerifyCodeInput{
		Email: req.Email,
		Code:  req.OTP,
		Token: req.Token,
	})
	if err != nil {
		return nil, err
	}

	return VerifyCodeResponse{
		Email:     resp.Email,
		ExpiresAt: resp.ExpiresAt,
		Token:     resp.Token,
	}, nil
}

// ResetPassword sets a new password for a verified code.
// @Summary Reset password
// @Tags Recovery
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset payload"
// @Success 200 {object} router.successBody{data=ResetPasswordResponse} "Password updated"
// @Failure 404 {object} router.failureBody "Account not found"
// @Failure 410 {object} router.failureBody "Session expired"
// @Failure 428 {object} router.failureBody "Code not verified"
// @Failure 500 {object} router.failureBody "Update failed, retry with the same code"
// @Router /api/v1/password-reset/reset [post]
func (h *HTTPEndpoint) ResetPassword(r *router.Request) (any, error) {
	var req ResetPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ResetPassword(r.Context(), usecase.ResetPasswordInput{
		Email:       req.Email,
		Code:        req.OTP,
		NewPassword: req.NewPassword,
		Token:       req.Token,
	}); err != nil {
		return nil, err
	}

	return ResetPasswordResponse{}, nil
}
