package tbot

import (
	"context"
	"errors"
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/logcfg"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/api"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

// App represents the application structure responsible for initializing dependencies
// and running the Telegram bot.
type App struct {
	serviceProvider *ServiceProvider // The service provider for dependency injection
	config          *config.Config   // The configuration object for the application
}

// NewApp creates a new instance of the application.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{}
	err := app.initDeps(ctx)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Run starts the bot, the reconciler and the HTTP server and blocks until SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return a.runTelegramBot(ctx, cancel)
}

// initDeps initializes all dependencies required by the application.
func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
		a.initStorage,
	}

	for _, f := range inits {
		err := f(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// initConfig initializes the application configuration.
func (a *App) initConfig(_ context.Context) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	a.config = cfg
	logcfg.RunLoggerConfig(a.config.EnvLogsLevel, a.config.EnvLogFileName)
	return nil
}

// initServiceProvider initializes the service provider for dependency injection.
func (a *App) initServiceProvider(_ context.Context) error {
	a.serviceProvider = NewServiceProvider(a.config)
	return nil
}

// initStorage opens the subscription store and the session backend, so a bad DSN fails at startup.
func (a *App) initStorage(ctx context.Context) error {
	if _, err := a.serviceProvider.SubscriptionStorage(ctx); err != nil {
		return fmt.Errorf("open %s subscription storage: %w", a.config.EnvStorageDriver, err)
	}
	if _, err := a.serviceProvider.SessionStorage(); err != nil {
		return fmt.Errorf("open %s session storage: %w", a.config.EnvSessionDriver, err)
	}
	return nil
}

// runTelegramBot starts the Telegram bot with graceful shutdown.
func (a *App) runTelegramBot(ctx context.Context, cancel context.CancelFunc) error {
	botAPI, err := a.serviceProvider.BotAPI()
	if err != nil {
		return fmt.Errorf("can't make telegram bot: %w", err)
	}
	logrus.Infof("Bot API created successfully for %s", botAPI.Self.UserName)

	myBot, err := a.serviceProvider.BotService(ctx)
	if err != nil {
		return err
	}
	reconciler, err := a.serviceProvider.Reconciler(ctx)
	if err != nil {
		return err
	}
	sessions, err := a.serviceProvider.SessionStorage()
	if err != nil {
		return err
	}
	subscriptions, err := a.serviceProvider.SubscriptionStorage(ctx)
	if err != nil {
		return err
	}

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		reconciler.Run(ctx)
	}()

	webhookPath := ""
	if a.config.EnvBotMode == "webhook" {
		if webhookPath, err = a.setWebhook(botAPI); err != nil {
			cancel()
			workers.Wait()
			return err
		}
	}
	server, err := a.startHTTPServer(ctx, webhookPath)
	if err != nil {
		cancel()
		workers.Wait()
		return err
	}

	var updates tgbotapi.UpdatesChannel
	if a.config.EnvBotMode == "polling" {
		if _, err = botAPI.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logrus.WithError(err).Warn("Failed to delete webhook before polling")
		}
		updateConfig := tgbotapi.NewUpdate(0)
		updateConfig.Timeout = 60 // seconds timeout
		updates = api.NewUpdatesPoller(botAPI).Updates(ctx, updateConfig)
	}

	// Setup ticker for periodic session saving
	ticker := time.NewTicker(a.config.EnvSessionSave)
	defer ticker.Stop()

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	// Main loop
loop:
	for {
		select {
		case sig := <-signalChan: // Wait for shutdown signal
			logrus.Infof("Received %v signal, shutting down bot...", sig)
			break loop
		case <-ctx.Done():
			break loop
		case <-ticker.C: // Ticker event
			if err = sessions.Flush(); err != nil {
				logrus.WithError(err).Error("Error while saving sessions on ticker")
			}
		case update, ok := <-updates: // Telegram updates, nil channel in webhook mode
			if !ok {
				logrus.Error("Telegram update chan closed")
				break loop
			}
			workers.Add(1)
			go func(update tgbotapi.Update) {
				defer workers.Done()
				myBot.UpdateProcessing(ctx, &update)
			}(update)
		}
	}

	a.shutdown(cancel, server, &workers)
	if err = sessions.Close(); err != nil {
		logrus.WithError(err).Error("Error while saving sessions on shutdown")
	}
	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	if err = subscriptions.Close(closeCtx); err != nil {
		logrus.WithError(err).Error("Error while closing subscription storage")
	}
	logrus.Info("Bot stopped")
	return nil
}

// setWebhook registers WEBHOOK_URL with Telegram and returns the path to serve it on.
func (a *App) setWebhook(botAPI *tgbotapi.BotAPI) (string, error) {
	webhookURL, err := url.Parse(a.config.EnvWebhookURL)
	if err != nil {
		return "", fmt.Errorf("invalid WEBHOOK_URL: %w", err)
	}
	webhook, err := tgbotapi.NewWebhook(a.config.EnvWebhookURL)
	if err != nil {
		return "", fmt.Errorf("create webhook config: %w", err)
	}
	if _, err = botAPI.Request(webhook); err != nil {
		return "", fmt.Errorf("set webhook: %w", err)
	}
	logrus.Infof("Webhook set to %s", webhookURL.Redacted())

	if webhookURL.Path == "" {
		return "/", nil
	}
	return webhookURL.Path, nil
}

func (a *App) startHTTPServer(ctx context.Context, webhookPath string) (*http.Server, error) {
	handler, err := a.serviceProvider.Handler(ctx)
	if err != nil {
		return nil, err
	}
	server := &http.Server{
		Addr:              a.config.EnvHTTPAddress,
		Handler:           handler.Router(webhookPath),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logrus.Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("HTTP server failed")
		}
	}()
	return server, nil
}

// shutdown drains in-flight webhook requests, then stops polling, the reconciler and update workers.
func (a *App) shutdown(cancel context.CancelFunc, server *http.Server, workers *sync.WaitGroup) {
	ctx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown")
	}

	cancel()
	workers.Wait()
}
