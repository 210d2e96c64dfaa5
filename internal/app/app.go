// Package app assembles the service: config, telemetry, storage, brokers, the
// HTTP router and the enabled modules, and owns their shutdown.
package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/krishignan/krishignan/internal/pkg/config"
	"github.com/krishignan/krishignan/internal/pkg/goroutine"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/mail"
	"github.com/krishignan/krishignan/internal/pkg/messaging"
	"github.com/krishignan/krishignan/internal/pkg/router"
	"github.com/krishignan/krishignan/internal/pkg/uid"
	"github.com/krishignan/krishignan/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type closer struct {
	name string
	fn   func(context.Context) error
}

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	config config.Config
	ins    instrument.Instrumentation

	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID

	// Only one of dbConn and mongoDB is set, per database.driver.
	dbConn    *pgxpool.Pool
	mongoDB   *mongo.Database
	cacheConn redis.UniversalClient
	mail      mail.Mail
	messaging messaging.Messaging

	router     *router.Router
	httpServer *http.Server

	closers []closer
}

// New wires everything or exits the process; there is no partial start.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{ctx: ctx, cancel: cancel}

	for _, step := range []func(){
		a.initConfig,
		a.initInstrument,
		a.initLibraries,
		a.initDatabase,
		a.initCache,
		a.initMail,
		a.initMessaging,
		a.initHTTPServer,
		a.initModules,
	} {
		step()
	}

	return a
}
