package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"refbot/bot"
	"refbot/config"
	"refbot/database"
	"refbot/events"
	"refbot/repository"
	"refbot/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting refbot...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	ledgerService := service.NewLedgerService(uowFactory)

	// Initialize Telegram bot
	log.Println("Initializing Telegram bot...")
	telegramBot, err := bot.New(cfg, ledgerService, eventBus)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	// Run the update loop until the context is cancelled
	log.Printf("Bot is running in %s mode...", cfg.Environment)
	runErr := telegramBot.Start(ctx)

	// Cleanup resources
	log.Println("Shutting down bot...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return runErr
}
