package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oomavera/agency/internal/api/router"
	"github.com/oomavera/agency/internal/clickup"
	appconfig "github.com/oomavera/agency/internal/config"
	"github.com/oomavera/agency/internal/dispatch"
	"github.com/oomavera/agency/internal/followup"
	"github.com/oomavera/agency/internal/gohighlevel"
	"github.com/oomavera/agency/internal/http/handlers"
	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/internal/metacapi"
	"github.com/oomavera/agency/internal/notify"
	"github.com/oomavera/agency/internal/observability/metrics"
	"github.com/oomavera/agency/internal/openphone"
	"github.com/oomavera/agency/internal/qstash"
	"github.com/oomavera/agency/internal/telegram"
	"github.com/oomavera/agency/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Lead store: Postgres when configured, in-memory otherwise
	var repo leads.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to Postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = leads.NewPostgresRepository(pool)
		logger.Info("using Postgres lead store")
	} else {
		repo = leads.NewInMemoryRepository()
		logger.Warn("DATABASE_URL not set, using in-memory lead store")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	dispatchMetrics := metrics.NewDispatchMetrics(promRegistry)

	// Integrations fan out on every submission; each is optional and a
	// missing credential just drops that dispatcher from the set.
	var dispatchers []dispatch.Dispatcher
	var telegramDispatcher *telegram.Dispatcher

	if cfg.ClickUpAPIToken != "" {
		client, err := clickup.New(clickup.Config{APIToken: cfg.ClickUpAPIToken, Logger: logger})
		if err != nil {
			logger.Error("clickup client init failed", "error", err)
			os.Exit(1)
		}
		dispatchers = append(dispatchers, clickup.NewDispatcher(client, clickup.DispatcherConfig{
			ListID:        cfg.ClickUpListID,
			Status:        cfg.ClickUpLeadStatus,
			Priority:      cfg.ClickUpLeadPriority,
			AssigneeIDs:   parseIntList(cfg.ClickUpAssigneeIDs),
			PhoneFieldID:  cfg.ClickUpPhoneFieldID,
			EmailFieldID:  cfg.ClickUpEmailFieldID,
			SourceFieldID: cfg.ClickUpSourceFieldID,
		}))
	}

	var openPhoneClient *openphone.Client
	if cfg.OpenPhoneAPIKey != "" {
		client, err := openphone.New(openphone.Config{APIKey: cfg.OpenPhoneAPIKey, Logger: logger})
		if err != nil {
			logger.Error("openphone client init failed", "error", err)
			os.Exit(1)
		}
		openPhoneClient = client
		dispatchers = append(dispatchers, openphone.NewDispatcher(client, openphone.DispatcherConfig{
			PhoneLabel: cfg.OpenPhonePhoneLabel,
			EmailLabel: cfg.OpenPhoneEmailLabel,
		}))
	}

	if cfg.GHLAPIKey != "" {
		client, err := gohighlevel.New(gohighlevel.Config{
			BaseURL: cfg.GHLBaseURL,
			APIKey:  cfg.GHLAPIKey,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("gohighlevel client init failed", "error", err)
			os.Exit(1)
		}
		dispatchers = append(dispatchers, gohighlevel.NewDispatcher(client, gohighlevel.DispatcherConfig{
			PipelineID: cfg.GHLPipelineID,
			StageID:    cfg.GHLStageID,
		}, logger))
	}

	var metaClient *metacapi.Client
	if cfg.MetaPixelID != "" && cfg.MetaAccessToken != "" {
		client, err := metacapi.New(metacapi.Config{
			PixelID:     cfg.MetaPixelID,
			AccessToken: cfg.MetaAccessToken,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("meta capi client init failed", "error", err)
			os.Exit(1)
		}
		metaClient = client
		dispatchers = append(dispatchers, metacapi.NewDispatcher(client))
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		client, err := telegram.New(telegram.Config{
			BotToken: cfg.TelegramBotToken,
			ChatID:   cfg.TelegramChatID,
			Logger:   logger,
		})
		if err != nil {
			logger.Error("telegram client init failed", "error", err)
			os.Exit(1)
		}
		tz, err := time.LoadLocation(cfg.SendWindowTimezone)
		if err != nil {
			tz = time.UTC
		}
		telegramDispatcher = telegram.NewDispatcher(client, telegram.DispatcherConfig{
			PublicBaseURL: cfg.PublicBaseURL,
			Timezone:      tz,
		}, logger)
		dispatchers = append(dispatchers, telegramDispatcher)
	}

	logger.Info("integrations configured", "count", len(dispatchers))
	fanout := dispatch.NewFanOut(dispatchers, cfg.DispatchTimeout, dispatchMetrics, logger)

	// Delayed follow-up SMS via QStash
	var queue followup.Queue
	if cfg.QStashToken != "" {
		client, err := qstash.New(qstash.Config{
			BaseURL: cfg.QStashBaseURL,
			Token:   cfg.QStashToken,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("qstash client init failed", "error", err)
			os.Exit(1)
		}
		queue = client
	} else {
		logger.Warn("QSTASH_TOKEN not set, follow-up SMS scheduling disabled")
	}

	window, err := followup.ParseSendWindow(cfg.SendWindowStart, cfg.SendWindowEnd, cfg.SendWindowTimezone, cfg.SendWindowOverride)
	if err != nil {
		logger.Error("invalid send window", "error", err)
		os.Exit(1)
	}

	var deduper followup.Deduper
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, duplicate suppression disabled", "error", err)
		} else {
			deduper = followup.NewRedisDeduper(redisClient, cfg.DedupeTTL)
			defer redisClient.Close()
		}
	}

	scheduler := followup.NewScheduler(queue, repo, deduper, followup.SchedulerConfig{
		PublicBaseURL: cfg.PublicBaseURL,
		Delay:         cfg.FollowUpDelay,
		Window:        window,
	}, dispatchMetrics, logger)
	canceller := followup.NewCanceller(queue, repo, dispatchMetrics, logger)

	// Operator email notifications for qualified leads
	var notifier *notify.Service
	if cfg.SendGridAPIKey != "" && len(cfg.OperatorEmails) > 0 {
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		notifier = notify.NewService(sender, cfg.OperatorEmails, logger)
	}

	// Initialize handlers
	intakeHandler := handlers.NewIntakeHandler(repo, fanout, scheduler, notifier, dispatchMetrics, logger)
	qualifyHandler := handlers.NewQualifyHandler(repo, qualifyNotifier(telegramDispatcher), logger)
	sendSMSHandler := handlers.NewSendSMSHandler(openPhoneClient, cfg.OpenPhoneNumberID, dispatchMetrics, logger)
	cancelSMSHandler := handlers.NewCancelSMSHandler(canceller, logger)
	webhookHandler := handlers.NewClickUpWebhookHandler(cfg.ClickUpWebhookSecret, metaClient, logger)
	adminLeadsHandler := handlers.NewAdminLeadsHandler(repo, logger)

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		Intake:             intakeHandler,
		Qualify:            qualifyHandler,
		SendSMS:            sendSMSHandler,
		CancelSMS:          cancelSMSHandler,
		ClickUpWebhook:     webhookHandler,
		AdminLeads:         adminLeadsHandler,
		HealthHandler:      healthCheck,
		MetricsHandler:     promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		AdminAuthSecret:    cfg.AdminToken,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// qualifyNotifier keeps the typed-nil dispatcher out of the interface.
func qualifyNotifier(d *telegram.Dispatcher) dispatch.Dispatcher {
	if d == nil {
		return nil
	}
	return d
}

func parseIntList(value string) []int {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, n)
		}
	}
	return out
}
