package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/config"
	http_controllers "github.com/mrlokans/bookstore/internal/http"
	"github.com/mrlokans/bookstore/internal/scheduler"
	"github.com/mrlokans/bookstore/internal/tasks"
	"github.com/mrlokans/bookstore/internal/telemetry"
)

const reconcileTimeout = 30 * time.Minute

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var listenErr error
	select {
	case <-quit:
	case listenErr = <-serveErr:
		log.Printf("listen: %v", listenErr)
	}
	log.Printf("Shutdown Server, waiting %v before killing", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	shutdownErr := srv.Shutdown(ctx)

	// Drain requests before the stores close
	if onShutdown != nil {
		onShutdown(ctx)
	}
	if shutdownErr != nil {
		return fmt.Errorf("server shutdown: %w", shutdownErr)
	}

	log.Println("Server exiting")
	return listenErr
}

// Run wires the stores, services, background workers and HTTP API and
// serves until interrupted.
func Run(cfg *config.Config, version string) error {
	log.Printf("Starting Bookstore v%s", version)
	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			app.Close(ctx)
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}

		taskClient.Register(
			tasks.NewMirrorRetryQueue(app.Sync),
			tasks.NewMirrorReconcileQueue(app.Sync),
		)
		app.Sync.SetRetryQueue(taskClient)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	} else {
		log.Printf("Task queue disabled: failed mirror writes will not be retried")
	}

	// Periodic full reconcile
	var reconcileScheduler *scheduler.MirrorReconcileScheduler
	var schedulerCancel context.CancelFunc
	if cfg.Reconcile.Enabled {
		reconcileScheduler = scheduler.NewMirrorReconcileScheduler(app.Sync, cfg.Reconcile.Schedule, reconcileTimeout)
		var schedulerCtx context.Context
		schedulerCtx, schedulerCancel = context.WithCancel(context.Background())
		if err := reconcileScheduler.Start(schedulerCtx); err != nil {
			log.Printf("[RECONCILE] Failed to start scheduler: %v", err)
			schedulerCancel()
			reconcileScheduler, schedulerCancel = nil, nil
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Books:       app.Books,
		Customers:   app.Customers,
		Orders:      app.Orders,
		Imports:     app.Imports,
		Checkout:    app.Checkout,
		Reports:     app.Reports,
		Database:    app.DB,
		Mirror:      app.Mirror,
		Reconciler:  app.Sync,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if reconcileScheduler != nil {
			reconcileScheduler.Stop()
			schedulerCancel()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}
		app.Close(ctx)
		if err := shutdownTelemetry(ctx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}

	return Serve(router, cfg, onShutdown)
}
