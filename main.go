package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"postsuggest-bot/internal/attachments"
	"postsuggest-bot/internal/auth"
	"postsuggest-bot/internal/config"
	"postsuggest-bot/internal/database"
	"postsuggest-bot/internal/handlers"
	"postsuggest-bot/internal/locales"
	"postsuggest-bot/internal/moderation"
	"syscall"
	"time"

	telegoBot "postsuggest-bot/bot"

	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Mirror logs into a rotated file when requested
	if cfg.LogFile != "" {
		logFile := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	// Initialize localization bundle
	locales.Init(cfg.DefaultLanguage)

	// Initialize Sentry (if DSN is provided)
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Version,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	// Creating context for application lifecycle
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open storage
	store, err := database.Open(ctx, cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
			sentry.CaptureException(err)
		} else {
			log.Println("Database closed.")
		}
	}()

	// Drop attachments of posts that no longer exist; pending posts keep theirs
	files := attachments.NewStore(cfg.TempDir)
	if err := files.Reset(ctx, store); err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to prepare attachment directory: %v", err)
	}

	if cfg.CleanupEnabled() {
		janitor := attachments.NewJanitor(files, store, cfg.AttachmentMaxAge)
		if err := janitor.Start(cfg.CleanupSchedule); err != nil {
			sentry.CaptureException(err)
			log.Fatalf("Failed to start attachment janitor: %v", err)
		}
		defer janitor.Stop()
	}

	// --- Bot Initialization ---
	// 1. Create the raw telego bot instance first
	var bot *telego.Bot
	if cfg.Debug {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultDebugLogger())
	} else {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create telego bot: %v", err)
	}

	// 2. Create the access checker
	accessChecker, err := auth.NewAccessChecker(store)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create access checker: %v", err)
	}

	// 3. Create the moderation manager
	moderationManager, err := moderation.NewManager(moderation.ManagerDeps{
		Bot:           bot,
		Users:         store,
		Posts:         store,
		Settings:      store,
		PostLogger:    store,
		Files:         files,
		AccessChecker: accessChecker,
		Debug:         cfg.Debug,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create moderation manager: %v", err)
	}

	// 4. Create message handler with dependencies
	messageHandler, err := handlers.NewMessageHandler(handlers.HandlerDeps{
		Users:         store,
		Posts:         store,
		Settings:      store,
		ActionLogger:  store,
		AccessChecker: accessChecker,
		Moderation:    moderationManager,
		Version:       cfg.Version,
		Debug:         cfg.Debug,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create message handler: %v", err)
	}

	// 5. Start long polling
	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to start long polling: %v", err)
	}

	// 6. Create the bot wrapper
	appBot, err := telegoBot.New(telegoBot.BotDeps{
		Bot:          bot,
		UpdatesChan:  updates,
		Debug:        cfg.Debug,
		HandlerProv:  messageHandler,
		CallbackProc: moderationManager,
		RateLimit:    cfg.RateLimit,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	// Start the bot wrapper's processing loop in a separate goroutine
	done := make(chan struct{})
	go func() {
		appBot.Start(ctx)
		close(done)
	}()

	// Wait for context cancellation (e.g., SIGINT, SIGTERM)
	<-ctx.Done()

	log.Println("Shutting down bot...")
	<-done
	appBot.Stop()

	log.Println("Bot shutdown complete.")
}
