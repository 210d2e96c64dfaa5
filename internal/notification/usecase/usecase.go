// Package usecase turns password reset events into delivered emails.
package usecase

import (
	"context"

	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/mail"
	"github.com/krishignan/krishignan/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type (
	repoMail interface {
		Send(ctx context.Context, msg mail.Message) error
	}

	// codeOpener decrypts codes sealed by the publisher.
	codeOpener interface {
		OpenString(text string) (string, error)
	}
)

type Dependency struct {
	RepoMail   repoMail
	Opener     codeOpener
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

type Usecase struct {
	dep    Dependency
	tracer trace.Tracer
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{dep: dep, tracer: dep.Instrument.Tracer("notification.usecase")}
}
