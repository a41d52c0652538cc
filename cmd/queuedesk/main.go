package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"golang.org/x/sync/errgroup"

	"github.com/neomorfeo/queuedesk/internal/adapter/fsm"
	oteladapter "github.com/neomorfeo/queuedesk/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/queuedesk/internal/adapter/river"
	"github.com/neomorfeo/queuedesk/internal/app"
	"github.com/neomorfeo/queuedesk/internal/config"

	handler "github.com/neomorfeo/queuedesk/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("queuedesk exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := app.NewLogger(cfg.Log)

	// --- Telemetry ---
	if cfg.Telemetry.Enabled {
		providers, err := oteladapter.Setup(ctx, oteladapter.FromSettings(*cfg))
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := providers.Shutdown(shutdownCtx); err != nil {
				logger.Error("otel shutdown", "error", err)
			}
		}()
	}

	// --- Adapters (out) ---
	st, err := openStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer st.close()

	if path := cfg.Directory.SeedPath; path != "" {
		offices, services, err := config.LoadDirectory(path)
		if err != nil {
			return err
		}
		if err := st.seed(ctx, offices, services); err != nil {
			return fmt.Errorf("seeding directory: %w", err)
		}
		logger.Info("directory seeded", "offices", len(offices), "services", len(services))
	}

	// The sweep worker needs the service and the service needs the
	// publisher built on the River client, so the worker resolves svc late.
	var svc *app.QueueService
	riverClient, err := riveradapter.Setup(ctx, st.river, riveradapter.Config{
		Notifier: riveradapter.LogNotifier{},
		Sweeper: riveradapter.SweeperFunc(func(ctx context.Context, grace time.Duration) (int, error) {
			return svc.SweepNoShows(ctx, grace)
		}),
		Grace:         cfg.Queue.NoShowGrace,
		SweepInterval: cfg.Queue.SweepInterval,
	})
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}

	publisher, err := oteladapter.NewTracingPublisher(riveradapter.NewPublisher(riverClient))
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	tickets := oteladapter.NewTracingTicketRepository(st.tickets)

	// --- Application ---
	svc = app.NewQueueService(tickets, st.directory, st.tx, fsm.New(), publisher, app.Options{
		Location:         cfg.Queue.Location,
		DailyCapacity:    cfg.Queue.DailyCapacity,
		MinutesPerTicket: cfg.Queue.MinutesPerTicket,
		Logger:           logger,
	})

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(otelchi.Middleware(cfg.Telemetry.ServiceName, otelchi.WithChiRoutes(router)))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	api := humachi.New(router, huma.DefaultConfig("queuedesk", cfg.Telemetry.ServiceVersion))
	handler.Register(api, svc, st.directory)

	// --- Server ---
	srv := &http.Server{
		Addr:              cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	// River stops through Stop below, not through the signal context.
	if err := riverClient.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("queuedesk listening", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := riverClient.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("river stop: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}
