package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iota-uz/hrm-import/modules"
	"github.com/iota-uz/hrm-import/pkg/application"
	"github.com/iota-uz/hrm-import/pkg/configuration"
	"github.com/iota-uz/hrm-import/pkg/eventbus"
	"github.com/iota-uz/hrm-import/pkg/httpapi"
	"github.com/iota-uz/hrm-import/pkg/metrics"
	"github.com/iota-uz/hrm-import/pkg/middleware"
	"github.com/iota-uz/hrm-import/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	app.RegisterMiddleware(
		middleware.WithLogger(logger, middleware.LoggerOptions{
			RequestIDHeader: conf.RequestIDHeader,
			RealIPHeader:    "X-Real-IP",
		}),
		middleware.WithPool(pool),
		middleware.WithRole(conf.RoleHeader),
	)
	if err := modules.Load(app, modules.BuiltInModules(conf, metrics.DefaultImportMetrics())...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path, prometheus.DefaultGatherer))
	}

	serverInstance := server.NewHTTPServer(
		app,
		jsonStatus(http.StatusNotFound, httpapi.CodeNotFound, "route not found"),
		jsonStatus(http.StatusMethodNotAllowed, httpapi.CodeInvalidRequest, "method not allowed"),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := serverInstance.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("server shutdown")
		}
	}()

	log.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := serverInstance.Start(conf.SocketAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("failed to start server: %v", err)
	}
}

func jsonStatus(status int, code, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = httpapi.WriteError(w, status, code, message, nil)
	})
}
