package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-import/modules/hrm"
	"github.com/iota-uz/hrm-import/modules/hrm/handlers"
	"github.com/iota-uz/hrm-import/modules/hrm/services/employeeimport"
	"github.com/iota-uz/hrm-import/pkg/application"
	"github.com/iota-uz/hrm-import/pkg/composables"
	"github.com/iota-uz/hrm-import/pkg/configuration"
	"github.com/iota-uz/hrm-import/pkg/eventbus"
)

// cliEnv is the wiring shared by commands that talk to the database.
type cliEnv struct {
	conf    *configuration.Configuration
	pool    *pgxpool.Pool
	app     application.Application
	service *employeeimport.Service
}

func openEnv(ctx context.Context) (*cliEnv, error) {
	conf := configuration.Use()
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(connectCtx, conf.Database.Opts)
	if err != nil {
		return nil, withCode(exitDB, fmt.Errorf("connect db: %w", err))
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, withCode(exitDB, fmt.Errorf("ping db: %w", err))
	}
	app, service, err := newApplication(pool, conf.Logger(), conf.Import)
	if err != nil {
		pool.Close()
		return nil, withCode(exitUsage, err)
	}
	return &cliEnv{conf: conf, pool: pool, app: app, service: service}, nil
}

// newApplication wires the import service together with the audit subscribers
// the server module registers.
func newApplication(pool *pgxpool.Pool, logger *logrus.Logger, conf configuration.ImportOptions) (application.Application, *employeeimport.Service, error) {
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	service, err := hrm.NewImportService(app, conf, nil)
	if err != nil {
		return nil, nil, err
	}
	handlers.RegisterImportEventHandlers(app)
	return app, service, nil
}

// context binds the pool and logger the way the HTTP middleware does.
func (e *cliEnv) context(ctx context.Context) context.Context {
	ctx = composables.WithPool(ctx, e.pool)
	return composables.WithLogger(ctx, e.conf.Logger().WithField("entrypoint", "employee-import"))
}

func (e *cliEnv) Close() {
	e.pool.Close()
	e.conf.Unload()
}
