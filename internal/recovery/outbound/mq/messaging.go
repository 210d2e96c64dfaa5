package mq

import (
	"context"
	"encoding/json"

	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/messaging"
	"github.com/krishignan/krishignan/internal/pkg/seal"
	"github.com/krishignan/krishignan/internal/pkg/uid"
	"github.com/krishignan/krishignan/internal/recovery/usecase"
	"github.com/krishignan/krishignan/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

// Messaging hands reset codes to the notification module through the broker.
type Messaging struct {
	client messaging.Publisher
	sealer *seal.Sealer
	uid    uid.NumberID
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, sealer *seal.Sealer, uid uid.NumberID, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, sealer: sealer, uid: uid, ins: ins}
}

func (m *Messaging) SendResetCode(ctx context.Context, msg usecase.ResetCodeDelivery) error {
	ctx, span := m.ins.Tracer("recovery.outbound.mq").Start(ctx, "SendResetCode")
	defer span.End()

	sealed, err := m.sealer.SealString(msg.Code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	body, err := json.Marshal(event.PasswordResetCodeMessage{
		EventID:    m.uid.Generate(),
		Email:      msg.Email,
		FullName:   msg.FullName,
		SealedCode: sealed,
		ExpiresAt:  msg.ExpiresAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.PasswordResetCodeDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(msg.Email),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
