package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/llm-mail-agent/internal/config"
	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/di"
	"github.com/mikey/llm-mail-agent/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	receiver ports.EmailReceiver,
	providers core.ProviderSet,
) error {
	defer logger.Sync()

	kind := zap.String("receiver", cfg.GetServer().Receiver)
	if err := receiver.Start(); err != nil {
		logger.Error("Failed to start receiver", kind, zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := receiver.Stop(); err != nil {
		logger.Error("Failed to stop receiver", kind, zap.Error(err))
	}

	// Close any clients that hold resources
	for name, client := range providers {
		if closer, ok := client.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close completion client", zap.String("provider", name), zap.Error(err))
			}
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
