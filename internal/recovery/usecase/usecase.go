package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/krishignan/krishignan/internal/pkg/config"
	"github.com/krishignan/krishignan/internal/pkg/hash"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/throttle"
	"github.com/krishignan/krishignan/internal/pkg/validator"
	"github.com/krishignan/krishignan/internal/recovery/entity"
	"github.com/krishignan/krishignan/internal/recovery/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type ResetCodeDelivery struct {
	Email     string
	FullName  string
	Code      string
	ExpiresAt time.Time
	ValidFor  time.Duration
}

type repoAccount interface {
	GetAccountByEmail(ctx context.Context, email string) (*entity.Account, error)
	UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error
}

type dispatcher interface {
	SendResetCode(ctx context.Context, msg ResetCodeDelivery) error
}

type Usecase struct {
	repoAccount repoAccount
	dispatcher  dispatcher
	store       session.Store
	cooldown    throttle.Throttle
	password    hash.Hash
	validator   validator.Validator
	cfg         config.Config
	clock       clock.Clocker
	ins         instrument.Instrumentation
	metrics     metrics
}

type Dependency struct {
	RepoAccount repoAccount
	Dispatcher  dispatcher
	Store       session.Store
	Cooldown    throttle.Throttle
	Password    hash.Hash
	Validator   validator.Validator
	Config      config.Config
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoAccount: dep.RepoAccount,
		dispatcher:  dep.Dispatcher,
		store:       dep.Store,
		cooldown:    dep.Cooldown,
		password:    dep.Password,
		validator:   dep.Validator,
		cfg:         dep.Config,
		clock:       dep.Clock,
		ins:         dep.Instrument,
		metrics:     newMetrics(dep.Instrument.Meter("recovery.usecase")),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("recovery.usecase").Start(ctx, name)
}

type metrics struct {
	issued   metric.Int64Counter
	verified metric.Int64Counter
	failed   metric.Int64Counter
	swept    metric.Int64Counter
}

func newMetrics(meter metric.Meter) metrics {
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			slog.Error("failed to create counter", "name", name, "error", err)
		}
		return c
	}

	return metrics{
		issued:   counter("recovery.otp.issued", "Number of reset codes issued"),
		verified: counter("recovery.otp.verified", "Number of reset codes verified"),
		failed:   counter("recovery.otp.failed", "Number of rejected reset code checks"),
		swept:    counter("recovery.otp.swept", "Number of expired sessions removed by the sweeper"),
	}
}

func add(ctx context.Context, c metric.Int64Counter, n int64, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.Add(ctx, n, metric.WithAttributes(attrs...))
}
