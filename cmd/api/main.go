package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parksmart_backend/internal/geo"
	apphttp "parksmart_backend/internal/http"
	"parksmart_backend/internal/http/router"
	"parksmart_backend/internal/locator"
	"parksmart_backend/internal/lookup"
	"parksmart_backend/internal/notification"
	"parksmart_backend/internal/notification/sse"
	"parksmart_backend/internal/parking"
	"parksmart_backend/internal/publish"
	"parksmart_backend/internal/session"
	"parksmart_backend/platform/ai/gemini"
	"parksmart_backend/platform/ai/moonshot"
	"parksmart_backend/platform/cache"
	"parksmart_backend/platform/config"
	"parksmart_backend/platform/events"
	"parksmart_backend/platform/logger"
	"parksmart_backend/platform/metrics"
	"parksmart_backend/platform/mqtt"
	"parksmart_backend/platform/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	rec := metrics.New()
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	store, closeStore := initCache(ctx, cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	searchModel, err := gemini.NewModel(ctx, gemini.Config{APIKey: cfg.GetGeminiAPIKey(), Model: cfg.GetGeminiModel()})
	if err != nil {
		log.Error("failed to initialize gemini model", "error", err)
		panic("failed to initialize gemini model: " + err.Error())
	}
	log.Info("gemini model initialized", "model", searchModel.Name())

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	lookupOpts := []lookup.Option{
		lookup.WithMetrics(rec),
		lookup.WithOptions(lookup.Options{
			RadiusKm:   cfg.GetSearchRadiusKm(),
			MaxResults: cfg.GetSearchMaxResults(),
			Timeout:    cfg.GetLookupTimeout(),
		}),
	}
	if cfg.GetAddressProvider() == config.AddressProviderMoonshot {
		lookupOpts = append(lookupOpts, lookup.WithAddressModel(moonshot.NewModel(moonshot.Config{
			APIKey:          cfg.GetMoonshotAPIKey(),
			Model:           cfg.GetMoonshotModel(),
			DisableThinking: true,
			Timeout:         cfg.GetLookupTimeout(),
		})))
		log.Info("address lookups routed to moonshot", "model", cfg.GetMoonshotModel())
	}
	if store != nil {
		lookupOpts = append(lookupOpts, lookup.WithAddressCache(lookup.NewStoreAddressCache(store)))
	}
	lookupClient := lookup.NewClient(searchModel, log, lookupOpts...)

	// Device readings arrive over HTTP and WebSocket and are fed into the source.
	pushSource := locator.NewPushSource(log)
	tracker := locator.NewTracker(pushSource, locator.Options{
		HighAccuracy: cfg.GetSensorHighAccuracy(),
		Timeout:      cfg.GetSensorTimeout(),
		MaximumAge:   cfg.GetSensorMaxAge(),
	}, log)

	// Notification module fans domain events out to SSE subscribers
	sseService := sse.New(log, rec)
	defer sseService.Close()
	notificationModule := notification.New(sseService, log)
	notificationModule.RegisterHandlers(eventBus)

	if closeMQTT := initOutcomePublisher(ctx, cfg, eventBus, log); closeMQTT != nil {
		defer closeMQTT()
	}

	parkingSession := session.New(lookupClient, tracker, eventBus, log, rec, session.Config{
		RefreshInterval: cfg.GetRefreshInterval(),
		Gate:            geo.NewGate(cfg.GetMovementThresholdDegrees()),
	})
	sessionErr := make(chan error, 1)
	go func() {
		sessionErr <- parkingSession.Run(ctx)
	}()

	parkingModule := parking.NewModule(parkingSession, pushSource, notificationModule.SSE(), val, log, rec)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Metrics: rec.Handler(),
		Modules: []apphttp.Module{
			parkingModule,
		},
	}
	if store != nil {
		app.Health = store
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-sessionErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("session stopped", "error", err)
		}
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}

	// Streaming handlers only return once their clients go away.
	sseService.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	stop()
	log.Info("server stopped")
}

func initCache(ctx context.Context, cfg config.CacheConfig, log *logger.Logger) (*cache.Store, func()) {
	if !cfg.IsCacheEnabled() {
		log.Warn("REDIS_URL not configured; address cache disabled")
		return nil, nil
	}

	var store *cache.Store
	if err := withRetry(ctx, log, "redis connection", 3, time.Second, func() error {
		s, err := cache.New(ctx, cfg)
		if err != nil {
			return err
		}
		store = s
		return nil
	}); err != nil {
		log.Error("failed to connect to redis; address cache disabled", "error", err)
		return nil, nil
	}
	log.Info("address cache enabled", "ttl", cfg.GetAddressCacheTTL())

	return store, func() {
		_ = store.Close()
	}
}

func initOutcomePublisher(ctx context.Context, cfg config.MQTTConfig, bus events.Bus, log *logger.Logger) func() {
	if !cfg.IsMQTTEnabled() {
		log.Info("MQTT_BROKER_URL not configured; outcome publishing disabled")
		return nil
	}

	client, err := mqtt.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize mqtt client", "error", err)
		return nil
	}
	publish.NewOutcomePublisher(client, cfg.GetMQTTTopic(), log).RegisterHandlers(bus)
	log.Info("outcome publishing enabled", "broker", cfg.GetMQTTBrokerURL(), "topic", cfg.GetMQTTTopic())

	return client.Close
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
