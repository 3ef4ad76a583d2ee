package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lunastra/payments/internal/app"
	"github.com/lunastra/payments/internal/config"
)

// RunNotifications starts the notification dispatch worker.
// Loads configuration, initializes the DI container and runs the ticker loop that
// drains pending notifications until receiving SIGINT/SIGTERM.
func RunNotifications(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	notificationUseCase, err := container.NotificationUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize notification use case: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting notification worker",
		slog.Duration("interval", cfg.NotificationsInterval),
	)

	if err := notificationUseCase.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("notification worker error: %w", err)
	}

	return nil
}
