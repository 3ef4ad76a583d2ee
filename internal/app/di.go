// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/lunastra/payments/internal/config"
	"github.com/lunastra/payments/internal/database"
	"github.com/lunastra/payments/internal/http"
	"github.com/lunastra/payments/internal/metrics"
	notificationRepository "github.com/lunastra/payments/internal/notification/repository"
	notificationService "github.com/lunastra/payments/internal/notification/service"
	notificationUsecase "github.com/lunastra/payments/internal/notification/usecase"
	orderHTTP "github.com/lunastra/payments/internal/order/http"
	orderRepository "github.com/lunastra/payments/internal/order/repository"
	orderUsecase "github.com/lunastra/payments/internal/order/usecase"
	profileRepository "github.com/lunastra/payments/internal/profile/repository"
	webhookHTTP "github.com/lunastra/payments/internal/webhook/http"
	"github.com/lunastra/payments/internal/webhook/signature"
	webhookUsecase "github.com/lunastra/payments/internal/webhook/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Repositories
	repos *repoSet

	// Use cases
	webhookUseCase webhookUsecase.UseCase
	orderUseCase   orderUsecase.UseCase
	notificationUC notificationUsecase.UseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization guards
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	repoInit            sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	webhookUseCaseInit  sync.Once
	orderUseCaseInit    sync.Once
	notificationUCInit  sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// repoSet groups the driver-specific repository implementations.
type repoSet struct {
	orders        webhookUsecase.OrderRepository
	ordersRead    orderUsecase.OrderRepository
	profiles      webhookUsecase.ProfileRepository
	notifications notificationUsecase.NotificationRepository
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if err, exists := c.initErrors["db"]; exists {
		return nil, err
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if err, exists := c.initErrors["txManager"]; exists {
		return nil, err
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	c.metricsProviderInit.Do(func() {
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if err, exists := c.initErrors["metricsProvider"]; exists {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op implementation
// is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = bm
	})
	if err, exists := c.initErrors["businessMetrics"]; exists {
		return nil, err
	}
	return c.businessMetrics, nil
}

// repositories returns the driver-specific repository implementations.
func (c *Container) repositories() (*repoSet, error) {
	c.repoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["repos"] = fmt.Errorf("failed to get database for repositories: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			orders := orderRepository.NewMySQLOrderRepository(db)
			c.repos = &repoSet{
				orders:        orders,
				ordersRead:    orders,
				profiles:      profileRepository.NewMySQLProfileRepository(db),
				notifications: notificationRepository.NewMySQLNotificationRepository(db),
			}
		case "postgres":
			orders := orderRepository.NewPostgreSQLOrderRepository(db)
			c.repos = &repoSet{
				orders:        orders,
				ordersRead:    orders,
				profiles:      profileRepository.NewPostgreSQLProfileRepository(db),
				notifications: notificationRepository.NewPostgreSQLNotificationRepository(db),
			}
		default:
			c.initErrors["repos"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["repos"]; exists {
		return nil, err
	}
	return c.repos, nil
}

// WebhookUseCase returns the event ingestor, decorated with metrics.
func (c *Container) WebhookUseCase() (webhookUsecase.UseCase, error) {
	c.webhookUseCaseInit.Do(func() {
		repos, err := c.repositories()
		if err != nil {
			c.initErrors["webhookUseCase"] = err
			return
		}

		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["webhookUseCase"] = err
			return
		}

		ingestor := webhookUsecase.NewEventIngestor(
			repos.orders,
			repos.profiles,
			repos.notifications,
			c.Logger(),
		)
		c.webhookUseCase = webhookUsecase.NewIngestorWithMetrics(ingestor, bm)
	})
	if err, exists := c.initErrors["webhookUseCase"]; exists {
		return nil, err
	}
	return c.webhookUseCase, nil
}

// OrderUseCase returns the order read use case.
func (c *Container) OrderUseCase() (orderUsecase.UseCase, error) {
	c.orderUseCaseInit.Do(func() {
		repos, err := c.repositories()
		if err != nil {
			c.initErrors["orderUseCase"] = err
			return
		}
		c.orderUseCase = orderUsecase.NewOrderUseCase(repos.ordersRead)
	})
	if err, exists := c.initErrors["orderUseCase"]; exists {
		return nil, err
	}
	return c.orderUseCase, nil
}

// NotificationUseCase returns the notification dispatch use case.
func (c *Container) NotificationUseCase() (notificationUsecase.UseCase, error) {
	c.notificationUCInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["notificationUseCase"] = err
			return
		}

		repos, err := c.repositories()
		if err != nil {
			c.initErrors["notificationUseCase"] = err
			return
		}

		logger := c.Logger()

		var sender notificationService.EmailSender
		if c.config.EmailAPIKey != "" {
			sender = notificationService.NewHTTPEmailSender(
				c.config.EmailAPIURL,
				c.config.EmailAPIKey,
				c.config.EmailFrom,
				c.config.EmailTimeout,
			)
		} else {
			sender = notificationService.NewLogEmailSender(logger)
		}

		c.notificationUC = notificationUsecase.NewNotificationUseCase(
			notificationUsecase.Config{
				Interval:   c.config.NotificationsInterval,
				BatchSize:  c.config.NotificationsBatchSize,
				MaxRetries: c.config.NotificationsMaxRetries,
			},
			txManager,
			repos.notifications,
			sender,
			logger,
		)
	})
	if err, exists := c.initErrors["notificationUseCase"]; exists {
		return nil, err
	}
	return c.notificationUC, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		logger := c.Logger()

		db, err := c.DB()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		webhookUC, err := c.WebhookUseCase()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		orderUC, err := c.OrderUseCase()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		serverCfg := http.Config{
			Host:             c.config.ServerHost,
			Port:             c.config.ServerPort,
			CORSEnabled:      c.config.CORSEnabled,
			CORSAllowOrigins: c.config.CORSAllowOrigins,
			MetricsNamespace: c.config.MetricsNamespace,
		}
		if provider != nil {
			serverCfg.MeterProvider = provider.MeterProvider()
		}

		verifier := signature.NewStripeVerifier(c.config.StripeWebhookSecret, c.config.WebhookTolerance)
		webhookHandler := webhookHTTP.NewWebhookHandler(verifier, webhookUC, logger)
		orderHandler := orderHTTP.NewOrderHandler(orderUC, logger)

		c.httpServer = http.NewServer(serverCfg, logger, db, webhookHandler, orderHandler)
	})
	if err, exists := c.initErrors["httpServer"]; exists {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err, exists := c.initErrors["metricsServer"]; exists {
		return nil, err
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
