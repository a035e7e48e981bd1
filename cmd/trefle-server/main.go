package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/trefle-asso/trefle/pkg/accounts"
	"github.com/trefle-asso/trefle/pkg/api"
	"github.com/trefle-asso/trefle/pkg/audit"
	"github.com/trefle-asso/trefle/pkg/authz"
	"github.com/trefle-asso/trefle/pkg/config"
	"github.com/trefle-asso/trefle/pkg/identity"
	"github.com/trefle-asso/trefle/pkg/membership"
	"github.com/trefle-asso/trefle/pkg/middleware"
	"github.com/trefle-asso/trefle/pkg/notify"
	"github.com/trefle-asso/trefle/pkg/observability"
	"github.com/trefle-asso/trefle/pkg/provisioning"
	"github.com/trefle-asso/trefle/pkg/roles"
	"github.com/trefle-asso/trefle/pkg/storage"
)

const version = "1.2.0"

var (
	bootstrapEmail     = flag.String("bootstrap", "", "Create the first president account for this email and exit")
	bootstrapFirstName = flag.String("bootstrap-first-name", "", "First name for the bootstrap account")
	bootstrapLastName  = flag.String("bootstrap-last-name", "", "Last name for the bootstrap account")
	reminderSchedule   = flag.String("reminder-schedule", "0 8 * * *", "Cron schedule for the pending application reminder")
	reminderAge        = flag.Duration("reminder-age", 72*time.Hour, "Age after which a pending application counts as stale")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	db, err := storage.OpenPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	registry := roles.NewDefaultRegistry()
	if cfg.Roles.File != "" {
		registry, err = roles.LoadRoleFile(cfg.Roles.File)
		if err != nil {
			log.Fatalf("Failed to load role catalog from %s: %v", cfg.Roles.File, err)
		}
		logger.Infof("Role catalog loaded from %s", cfg.Roles.File)
	}
	engine := authz.NewEngine(registry)

	var provider identity.Provider = identity.NewRESTProvider(identity.RESTConfig{
		BaseURL:        cfg.IdentityProvider.BaseURL,
		TokenURL:       cfg.IdentityProvider.TokenURL,
		ClientID:       cfg.IdentityProvider.ClientID,
		ClientSecret:   cfg.IdentityProvider.ClientSecret,
		RequestTimeout: cfg.IdentityProvider.RequestTimeout,
	})
	if cfg.IdentityProvider.CacheSize > 0 {
		provider, err = identity.NewCachedProvider(provider, cfg.IdentityProvider.CacheSize)
		if err != nil {
			log.Fatalf("Failed to initialize identity cache: %v", err)
		}
	}

	var sender notify.Sender = &notify.LogSender{}
	if cfg.SMTP.Host != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
		})
	} else {
		logger.Warn("No SMTP host configured, welcome mail goes to the log only")
	}

	auditLog := audit.NoOp()
	if cfg.Audit.Enabled {
		fileLogger, err := audit.NewFileLogger(audit.FileLoggerConfig{
			BasePath: cfg.Audit.Path,
			Rotate:   true,
			MaxSize:  cfg.Audit.MaxSize,
			MaxFiles: cfg.Audit.MaxFiles,
		})
		if err != nil {
			log.Fatalf("Failed to open audit log: %v", err)
		}
		auditLog = fileLogger
	}

	provisioner := provisioning.NewService(engine, provider, sender)
	store := membership.NewPostgresStore(db)
	workflow := membership.NewWorkflow(store, provisioner)
	accountsService := accounts.NewService(engine, provider, sender, auditLog)

	if *bootstrapEmail != "" {
		runBootstrap(accountsService, *bootstrapEmail, *bootstrapFirstName, *bootstrapLastName)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)
	storage.StartPoolMetrics(ctx, db, metrics, 0)

	// Redis only backs rate limiting, so a failure here degrades the
	// service instead of stopping it.
	var rateLimit *middleware.DistributedRateLimitMiddleware
	redisClient, err := storage.OpenRedis(cfg.Redis)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, rate limiting disabled")
	} else {
		rateLimit = middleware.NewDistributedRateLimitMiddleware(redisClient,
			middleware.InviteRateLimitConfig(), middleware.ApplicationRateLimitConfig())
	}

	health := observability.NewHealthChecker(db, redisClient, version)

	server := api.NewServer(api.Config{
		Engine:      engine,
		Accounts:    accountsService,
		Provisioner: provisioner,
		Bulk:        provisioning.NewBulk(provisioner),
		Workflow:    workflow,
		Metrics:     metrics,
		Registry:    promRegistry,
		Health:      health,
		RateLimit:   rateLimit,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthServer := newHealthServer(cfg.Server, health, promRegistry)

	scheduler := startScheduler(ctx, store, metrics, logger)

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc("health-server", healthServer.Shutdown)
	shutdown.RegisterShutdownFunc("scheduler", func(context.Context) error {
		<-scheduler.Stop().Done()
		return nil
	})
	shutdown.RegisterShutdownFunc("audit-log", func(context.Context) error {
		return auditLog.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}
	if otelProviders != nil {
		shutdown.RegisterShutdownFunc("tracing", func(sctx context.Context) error {
			return observability.ShutdownOTel(sctx, otelProviders, logger)
		})
	}

	go func() {
		logger.Infof("Trèfle API listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			cancel()
		}
	}()
	go func() {
		logger.Infof("Health endpoints listening on :%s", cfg.Server.HealthPort)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
	logger.Info("Trèfle stopped")
}

// runBootstrap creates the very first president account and prints the
// generated credential to stdout. Refused when an admin already exists.
func runBootstrap(service *accounts.Service, email, firstName, lastName string) {
	if firstName == "" || lastName == "" {
		log.Fatal("bootstrap requires -bootstrap-first-name and -bootstrap-last-name")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := service.Bootstrap(ctx, email, firstName, lastName)
	if err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}

	fmt.Printf("Created president account %s (%s)\n", result.Identity.Email, result.Identity.ID)
	fmt.Printf("Initial password: %s\n", result.PlaintextPassword)
	fmt.Println("The password must be changed at first login.")
}

func newHealthServer(cfg config.ServerConfig, health *observability.HealthChecker, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	observability.RegisterHealthRoutes(mux, health)
	observability.RegisterMetricsEndpoint(mux, registry)

	return &http.Server{
		Addr:         cfg.Host + ":" + cfg.HealthPort,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// startScheduler runs the recurring jobs: a stale-application reminder on
// the configured cron expression and a pending-count gauge refresh.
func startScheduler(ctx context.Context, store membership.Store, metrics *observability.Metrics, logger *observability.Logger) *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc(*reminderSchedule, func() {
		defer observability.RecoverPanic(logger, "application reminder job")
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		cutoff := time.Now().Add(-*reminderAge)
		stale, err := store.CountPendingOlderThan(jobCtx, cutoff)
		if err != nil {
			logger.WithError(err).Error("Stale application count failed")
			return
		}
		if stale > 0 {
			logger.WithField("count", stale).Warnf("%d applications have been pending for more than %s", stale, *reminderAge)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule application reminder: %v", err)
	}

	if _, err := c.AddFunc("@every 5m", func() {
		defer observability.RecoverPanic(logger, "pending gauge refresh")
		jobCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pending, err := store.CountByStatus(jobCtx, membership.StatusPending)
		if err != nil {
			logger.WithError(err).Error("Pending application count failed")
			return
		}
		metrics.ApplicationsPending.Set(float64(pending))
	}); err != nil {
		log.Fatalf("Failed to schedule pending gauge refresh: %v", err)
	}

	c.Start()
	logger.Infof("Scheduler started, reminder schedule %q", *reminderSchedule)
	return c
}
