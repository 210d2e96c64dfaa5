package recovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/krishignan/krishignan/internal/pkg/config"
	"github.com/krishignan/krishignan/internal/pkg/goroutine"
	"github.com/krishignan/krishignan/internal/pkg/hash"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/keylock"
	"github.com/krishignan/krishignan/internal/pkg/mail"
	"github.com/krishignan/krishignan/internal/pkg/messaging"
	"github.com/krishignan/krishignan/internal/pkg/otp"
	"github.com/krishignan/krishignan/internal/pkg/router"
	"github.com/krishignan/krishignan/internal/pkg/seal"
	"github.com/krishignan/krishignan/internal/pkg/throttle"
	"github.com/krishignan/krishignan/internal/pkg/uid"
	"github.com/krishignan/krishignan/internal/pkg/validator"
	"github.com/krishignan/krishignan/internal/recovery/entity"
	"github.com/krishignan/krishignan/internal/recovery/inbound"
	"github.com/krishignan/krishignan/internal/recovery/outbound/db"
	"github.com/krishignan/krishignan/internal/recovery/outbound/email"
	mongorepo "github.com/krishignan/krishignan/internal/recovery/outbound/mongo"
	"github.com/krishignan/krishignan/internal/recovery/outbound/mq"
	"github.com/krishignan/krishignan/internal/recovery/session"
	"github.com/krishignan/krishignan/internal/recovery/usecase"
	"github.com/krishignan/krishignan/internal/shared/event"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrSecretRequired    = errors.New("recovery: modules.recovery.secret is required")
	ErrEventSecret       = errors.New("recovery: messaging.event_secret is required for queue delivery")
	ErrAccountStore      = errors.New("recovery: no account store configured")
	ErrRedisRequired     = errors.New("recovery: redis store needs a cache connection")
	ErrUnknownStoreMode  = errors.New("recovery: unknown modules.recovery.store")
	ErrUnknownDelivery   = errors.New("recovery: unknown modules.recovery.delivery")
	ErrMessagingRequired = errors.New("recovery: queue delivery needs messaging")
	ErrMailRequired      = errors.New("recovery: direct delivery needs a mail client")
)

type Dependency struct {
	// Ctx scopes the background sweeper. Nil skips it.
	Ctx        context.Context
	DBConn     *pgxpool.Pool
	MongoDB    *mongo.Database
	CacheConn  redis.UniversalClient
	Messaging  messaging.Publisher
	Mail       mail.Mail
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	secret := dep.Config.GetString("modules.recovery.secret")
	if secret == "" {
		return ErrSecretRequired
	}

	account, err := newAccountRepo(dep)
	if err != nil {
		return err
	}

	store, cooldown, err := newStore(dep, secret)
	if err != nil {
		return err
	}

	dispatcher, err := newDispatcher(dep)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoAccount: account,
		Dispatcher:  dispatcher,
		Store:       store,
		Cooldown:    cooldown,
		Password:    newPasswordHash(dep.Config),
		Validator:   dep.Validator,
		Config:      dep.Config,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	if dep.Ctx != nil {
		interval := dep.Config.GetSecond("modules.recovery.sweep_interval_seconds")
		dep.Goroutine.Go(dep.Ctx, func(ctx context.Context) error {
			return uc.RunSweeper(ctx, interval)
		})
	}

	return nil
}

type accountRepo interface {
	GetAccountByEmail(ctx context.Context, email string) (*entity.Account, error)
	UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error
}

func newAccountRepo(dep Dependency) (accountRepo, error) {
	switch dep.Config.GetString("database.driver") {
	case "mongo", "mongodb":
		if dep.MongoDB == nil {
			return nil, ErrAccountStore
		}
		return mongorepo.NewMongo(dep.MongoDB, dep.Instrument), nil
	default:
		if dep.DBConn == nil {
			return nil, ErrAccountStore
		}
		return db.NewDB(dep.DBConn, dep.Instrument), nil
	}
}

// defaultLockTTL applies when modules.recovery.lock_ttl_seconds is unset.
const defaultLockTTL = 30 * time.Second

// lockTiming returns the per-email lock TTL and the bound on the password
// update run under that lock. The update gets half the TTL so the lock cannot
// lapse while it is still writing.
func lockTiming(cfg config.Config) (ttl, apply time.Duration) {
	ttl = cfg.GetSecond("modules.recovery.lock_ttl_seconds")
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return ttl, ttl / 2
}

func newStore(dep Dependency, secret string) (session.Store, throttle.Throttle, error) {
	cfg := dep.Config
	ttl := cfg.GetMinute("modules.recovery.ttl_minutes")
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}

	mode := entity.ParseStoreMode(cfg.GetString("modules.recovery.store"))
	switch mode {
	case entity.StoreModeMemory, entity.StoreModeRedis:
		lockTTL, applyTimeout := lockTiming(cfg)
		storeCfg := session.Config{
			TTL:          ttl,
			MaxAttempts:  cfg.GetInt("modules.recovery.max_attempts"),
			ApplyTimeout: applyTimeout,
		}
		digest := hash.NewHMACSHA256(secret)

		if mode == entity.StoreModeMemory {
			store := session.NewStateful(session.NewMemoryBackend(), keylock.NewMemory(), digest, otp.NewGenerator(), dep.Clock, storeCfg)
			return store, throttle.NewMemory(dep.Clock), nil
		}

		if dep.CacheConn == nil {
			return nil, nil, ErrRedisRequired
		}
		backend := session.NewRedisBackend(dep.CacheConn, session.RedisBackendConfig{})
		locker := keylock.NewRedis(dep.CacheConn, keylock.RedisConfig{Prefix: "recovery:lock:", TTL: lockTTL})
		store := session.NewStateful(backend, locker, digest, otp.NewGenerator(), dep.Clock, storeCfg)
		return store, throttle.NewRedis(dep.CacheConn, "recovery:throttle:"), nil

	case entity.StoreModeToken:
		codec, err := otp.NewCodec([]byte(secret), ttl, dep.Clock)
		if err != nil {
			return nil, nil, fmt.Errorf("recovery: token codec: %w", err)
		}

		var guard throttle.Throttle = throttle.NewMemory(dep.Clock)
		if dep.CacheConn != nil {
			guard = throttle.NewRedis(dep.CacheConn, "recovery:throttle:")
		}
		return session.NewStateless(codec, otp.NewGenerator(), dep.Clock, guard), guard, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStoreMode, cfg.GetString("modules.recovery.store"))
	}
}

type dispatcher interface {
	SendResetCode(ctx context.Context, msg usecase.ResetCodeDelivery) error
}

func newDispatcher(dep Dependency) (dispatcher, error) {
	mode := entity.ParseDeliveryMode(dep.Config.GetString("modules.recovery.delivery"))
	switch mode {
	case entity.DeliveryModeDirect:
		if dep.Mail == nil {
			return nil, ErrMailRequired
		}
		return email.New(dep.Mail, dep.Instrument), nil

	case entity.DeliveryModeQueue:
		if dep.Messaging == nil {
			return nil, ErrMessagingRequired
		}
		secret := dep.Config.GetString("messaging.event_secret")
		if secret == "" {
			return nil, ErrEventSecret
		}
		sealer, err := seal.New([]byte(secret), event.PasswordResetCodePurpose)
		if err != nil {
			return nil, fmt.Errorf("recovery: event sealer: %w", err)
		}
		return mq.NewMessaging(dep.Messaging, sealer, dep.UID, dep.Instrument), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDelivery, dep.Config.GetString("modules.recovery.delivery"))
	}
}

// newPasswordHash picks the credential hash; bcrypt at cost 10 unless argon2id is configured.
func newPasswordHash(cfg config.Config) hash.Hash {
	pepper := cfg.GetString("modules.recovery.password_pepper")
	if cfg.GetString("modules.recovery.password_hash") == "argon2id" {
		return hash.NewArgon2id(pepper)
	}

	cost := cfg.GetInt("modules.recovery.bcrypt_cost")
	if cost <= 0 {
		cost = 10
	}
	return hash.NewBcrypt(cost, pepper)
}
