package app

import (
	"github.com/krishignan/krishignan/internal/notification"
	"github.com/krishignan/krishignan/internal/recovery"
)

// initModules starts each module whose modules.<name>.enabled flag is set.
func (a *App) initModules() {
	modules := []struct {
		name string
		init func() error
	}{
		{name: "recovery", init: a.recoveryModule},
		{name: "notification", init: a.notificationModule},
	}

	for _, m := range modules {
		if !a.config.GetBool("modules." + m.name + ".enabled") {
			continue
		}
		if err := m.init(); err != nil {
			fatal("failed to init module", err, "module", m.name)
		}
	}
}

func (a *App) recoveryModule() error {
	return recovery.New(recovery.Dependency{
		Ctx:        a.ctx,
		DBConn:     a.dbConn,
		MongoDB:    a.mongoDB,
		CacheConn:  a.cacheConn,
		Messaging:  a.messaging,
		Mail:       a.mail,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		Clock:      a.clock,
		Validator:  a.validator,
	})
}

func (a *App) notificationModule() error {
	return notification.New(notification.Dependency{
		Ctx:        a.ctx,
		Messaging:  a.messaging,
		Config:     a.config,
		Instrument: a.ins,
		UUID:       a.uuid,
		Clock:      a.clock,
		Goroutine:  a.goroutine,
		Validator:  a.validator,
		Mail:       a.mail,
	})
}
