package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/krishignan/krishignan/internal/notification/usecase"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/messaging"
	"github.com/krishignan/krishignan/internal/pkg/uid"
	"github.com/krishignan/krishignan/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := messaging.HeaderValue(msg, keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// PasswordResetCodeNotification never logs the body: it carries the sealed code.
func (h *MQHandler) PasswordResetCodeNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PasswordResetCodeNotification")
	defer span.End()

	slog.InfoContext(ctx, "consume: password reset code notification", "msg_id", msg.ID(), "topic", msg.Topic())

	var payload event.PasswordResetCodeMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of password reset code notification", "msg_id", msg.ID(), "error", err)
		return nil
	}

	if err := h.uc.ConsumePasswordResetCode(ctx, usecase.ConsumePasswordResetCodeInput{
		EventID:    payload.EventID,
		Email:      payload.Email,
		FullName:   payload.FullName,
		SealedCode: payload.SealedCode,
		ExpiresAt:  payload.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume password reset code", "event_id", payload.EventID, "error", err)
		return err
	}

	return nil
}
