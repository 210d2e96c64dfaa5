package email

import (
	"context"

	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/mail"
	"github.com/krishignan/krishignan/internal/recovery/usecase"
	"github.com/krishignan/krishignan/internal/shared/emailtpl"
	"go.opentelemetry.io/otel/codes"
)

// Mail sends reset codes straight to the mail transport.
type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

func (m *Mail) SendResetCode(ctx context.Context, msg usecase.ResetCodeDelivery) error {
	ctx, span := m.ins.Tracer("recovery.outbound.email").Start(ctx, "SendResetCode")
	defer span.End()

	rendered, err := emailtpl.RenderPasswordReset(emailtpl.PasswordReset{
		FullName: msg.FullName,
		Code:     msg.Code,
		ValidFor: msg.ValidFor,
		IssuedAt: msg.ExpiresAt.Add(-msg.ValidFor),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Send(ctx, mail.Message{
		To:       []string{msg.Email},
		Subject:  rendered.Subject,
		TextBody: rendered.Text,
		HTMLBody: rendered.HTML,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
