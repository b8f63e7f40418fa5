// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/academy-events/internal/config"
	"github.com/Shivanand-hulikatti/academy-events/internal/database"
	"github.com/Shivanand-hulikatti/academy-events/internal/handler"
	"github.com/Shivanand-hulikatti/academy-events/internal/logging"
	"github.com/Shivanand-hulikatti/academy-events/internal/notify"
	"github.com/Shivanand-hulikatti/academy-events/internal/repository"
	"github.com/Shivanand-hulikatti/academy-events/internal/repository/memory"
	"github.com/Shivanand-hulikatti/academy-events/internal/service"
)

type stores struct {
	events        service.EventStore
	fields        service.FieldStore
	registrations service.RegistrationStore
	close         func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Configuration and logging ─────────────────────────────────────
	cfgStore, err := config.NewStore(func() (config.Config, error) { return config.Load(".env") })
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	cfg := cfgStore.Current()
	log := logging.New(cfg.Log, nil)

	// ── 2. Storage ───────────────────────────────────────────────────────
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.Storage).Msg("open storage")
	}
	defer st.close()

	// ── 3. Notifications ─────────────────────────────────────────────────
	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.AMQP.URL != "" {
		rabbit, err := notify.NewRabbit(cfg.AMQP, log)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to rabbitmq")
		}
		defer rabbit.Close()
		notifier = rabbit
	}

	// ── 4. Wire up layers ────────────────────────────────────────────────
	clock := time.Now
	eventSvc := service.NewEventService(st.events, st.fields, clock, log)
	schemaSvc := service.NewSchemaService(st.events, st.fields, log)
	admission := service.NewRegistrationService(st.events, st.fields, st.registrations, notifier, clock,
		service.RegistrationOptions{MaxAttempts: cfg.MaxAdmitAttempts, Location: cfg.Timezone}, log)

	router := handler.NewRouter(
		handler.NewPublicHandler(eventSvc, schemaSvc, admission, cfgStore),
		handler.NewAdminHandler(eventSvc, schemaSvc, admission),
		log,
	)

	// ── 5. Reload site settings on SIGHUP ────────────────────────────────
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := cfgStore.Reload(); err != nil {
					log.Error().Err(err).Msg("config reload failed, keeping previous settings")
					continue
				}
				log.Info().Str("site", cfgStore.Current().Site.Name).Msg("config reloaded")
			}
		}
	}()

	// ── 6. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}

// openStores returns the repositories for the configured backend.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn().Msg("using in-memory storage, data is lost on exit")
		db := memory.New()
		return &stores{
			events:        memory.NewEventRepository(db),
			fields:        memory.NewFieldRepository(db),
			registrations: memory.NewRegistrationRepository(db),
			close:         func() {},
		}, nil
	}

	pool, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("connected to postgres")
	return &stores{
		events:        repository.NewEventRepository(pool),
		fields:        repository.NewFieldRepository(pool),
		registrations: repository.NewRegistrationRepository(pool, log),
		close:         pool.Close,
	}, nil
}
