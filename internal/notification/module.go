package notification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/krishignan/krishignan/internal/notification/inbound"
	"github.com/krishignan/krishignan/internal/notification/outbound/email"
	"github.com/krishignan/krishignan/internal/notification/usecase"
	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/krishignan/krishignan/internal/pkg/config"
	"github.com/krishignan/krishignan/internal/pkg/goroutine"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/mail"
	"github.com/krishignan/krishignan/internal/pkg/messaging"
	"github.com/krishignan/krishignan/internal/pkg/seal"
	"github.com/krishignan/krishignan/internal/pkg/uid"
	"github.com/krishignan/krishignan/internal/pkg/validator"
	"github.com/krishignan/krishignan/internal/shared/event"
)

var (
	ErrEventSecret       = errors.New("notification: messaging.event_secret is required to open reset codes")
	ErrMessagingRequired = errors.New("notification: a messaging consumer is required")
)

type Dependency struct {
	Ctx        context.Context
	Messaging  messaging.Consumer
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
}

// New wires the notification consumers. It is a no-op when
// modules.notification.consumer_names is empty.
func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	if len(dep.Config.GetArray("modules.notification.consumer_names")) == 0 {
		slog.Info("notification: no consumers enabled")
		return nil
	}

	if dep.Messaging == nil {
		return ErrMessagingRequired
	}

	secret := dep.Config.GetString("messaging.event_secret")
	if secret == "" {
		return ErrEventSecret
	}

	opener, err := seal.New([]byte(secret), event.PasswordResetCodePurpose)
	if err != nil {
		return err
	}

	repoMail := email.New(dep.Mail, dep.Config.GetString("mail.from"), dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		RepoMail:   repoMail,
		Opener:     opener,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
