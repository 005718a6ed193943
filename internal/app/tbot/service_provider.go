// Package tbot provides dependency injection and service management for Telegram bot components.
// It initializes and provides access to services, repositories, and handlers required for bot operations.
package tbot

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/api"
	botHand "github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/api/http"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/config"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/infra/storage"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/metrics"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/repository"
	botServ "github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"sync"
)

const metricsNamespace = "train_bot"

// ServiceProvider manages the dependency injection for Telegram bot components.
type ServiceProvider struct {
	cfg *config.Config

	// Metrics
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	// External sources
	stationAPI     *api.StationAPI
	trainSearchAPI *api.TrainSearchAPI

	// Storage
	subscriptions storage.Subscriptions
	sessions      storage.Sessions

	// Services
	dialog     *botServ.DialogService
	reconciler *botServ.Reconciler

	// Bot API
	botAPI *tgbotapi.BotAPI

	// Bot service
	botService *botServ.TgBotServices

	metricsOnce       sync.Once
	stationOnce       sync.Once
	trainSearchOnce   sync.Once
	subscriptionsOnce sync.Once
	sessionsOnce      sync.Once
	dialogOnce        sync.Once
	reconcilerOnce    sync.Once
	botAPIOnce        sync.Once
	botServiceOnce    sync.Once
}

// NewServiceProvider creates a new instance of the service provider.
func NewServiceProvider(cfg *config.Config) *ServiceProvider {
	if cfg == nil || cfg.EnvBotToken == "" {
		logrus.Fatal("ServiceProvider requires a configuration with a bot token")
	}
	return &ServiceProvider{cfg: cfg}
}

// Registry returns the prometheus registry with the bot metrics and the runtime collectors.
func (s *ServiceProvider) Registry() *prometheus.Registry {
	s.initMetrics()
	return s.registry
}

// Metrics returns the bot metrics.
func (s *ServiceProvider) Metrics() *metrics.Metrics {
	s.initMetrics()
	return s.metrics
}

func (s *ServiceProvider) initMetrics() {
	s.metricsOnce.Do(func() {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		s.metrics = metrics.NewMetrics(metricsNamespace, s.registry)
		logrus.Info("Metrics initialized")
	})
}

// StationService returns the station directory client with its name cache.
func (s *ServiceProvider) StationService() *api.StationAPI {
	s.stationOnce.Do(func() {
		s.stationAPI = api.NewStationAPI(s.cfg.EnvStationAPIEndpoint, s.cfg.EnvUserAgent, s.cfg.EnvRequestTimeout, repository.NewStationCache())
		logrus.Info("StationService initialized")
	})
	return s.stationAPI
}

// TrainSearchService returns the train search client.
func (s *ServiceProvider) TrainSearchService() *api.TrainSearchAPI {
	s.trainSearchOnce.Do(func() {
		s.trainSearchAPI = api.NewTrainSearchAPI(s.cfg.EnvRIDEndpoint, s.cfg.EnvDataEndpoint, s.cfg.EnvUserAgent, s.cfg.EnvRequestTimeout)
		logrus.Info("TrainSearchService initialized")
	})
	return s.trainSearchAPI
}

func (s *ServiceProvider) storageOptions() storage.Options {
	return storage.Options{
		MongoURI:        s.cfg.EnvMongoURI,
		MongoDB:         s.cfg.EnvMongoDB,
		MySQLDSN:        s.cfg.EnvMySQLDSN,
		SessionFilePath: s.cfg.EnvSessionFilePath,
		BadgerPath:      s.cfg.EnvBadgerPath,
		SessionTTL:      s.cfg.EnvSessionTTL,
	}
}

// SubscriptionStorage returns the subscription store selected by STORAGE_DRIVER.
func (s *ServiceProvider) SubscriptionStorage(ctx context.Context) (storage.Subscriptions, error) {
	var err error
	s.subscriptionsOnce.Do(func() {
		s.subscriptions, err = storage.OpenSubscriptions(ctx, s.cfg.EnvStorageDriver, s.storageOptions())
		if err != nil {
			logrus.WithError(err).Errorf("Failed to open %s subscription storage", s.cfg.EnvStorageDriver)
			return
		}
		logrus.Infof("Subscription storage %s initialized", s.cfg.EnvStorageDriver)
	})
	if s.subscriptions.Repository == nil {
		return storage.Subscriptions{}, fmt.Errorf("subscription storage not initialized: %v", err)
	}
	return s.subscriptions, nil
}

// SessionStorage returns the session backend selected by SESSION_DRIVER.
func (s *ServiceProvider) SessionStorage() (storage.Sessions, error) {
	var err error
	s.sessionsOnce.Do(func() {
		s.sessions, err = storage.OpenSessions(s.cfg.EnvSessionDriver, s.storageOptions())
		if err != nil {
			logrus.WithError(err).Errorf("Failed to open %s session storage", s.cfg.EnvSessionDriver)
			return
		}
		logrus.Infof("Session storage %s initialized", s.cfg.EnvSessionDriver)
	})
	if s.sessions.States == nil {
		return storage.Sessions{}, fmt.Errorf("session storage not initialized: %v", err)
	}
	return s.sessions, nil
}

// DialogService returns the conversation state machine.
func (s *ServiceProvider) DialogService(ctx context.Context) (*botServ.DialogService, error) {
	subscriptions, err := s.SubscriptionStorage(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.SessionStorage()
	if err != nil {
		return nil, err
	}
	s.dialogOnce.Do(func() {
		s.dialog = botServ.NewDialogService(
			sessions.States,
			sessions.FoundTrains,
			s.StationService(),
			s.TrainSearchService(),
			subscriptions.Repository,
			s.cfg.EnvRequestTimeout,
		)
		logrus.Info("DialogService initialized")
	})
	return s.dialog, nil
}

// BotAPI returns the Telegram Bot API instance.
func (s *ServiceProvider) BotAPI() (*tgbotapi.BotAPI, error) {
	var err error
	s.botAPIOnce.Do(func() {
		s.botAPI, err = tgbotapi.NewBotAPI(s.cfg.EnvBotToken)
		if err != nil {
			logrus.WithError(err).Error("Failed to initialize BotAPI")
			s.botAPI = nil
		}
	})
	if s.botAPI == nil {
		return nil, fmt.Errorf("bot API not initialized")
	}
	return s.botAPI, nil
}

// BotService returns the main Telegram bot service.
func (s *ServiceProvider) BotService(ctx context.Context) (*botServ.TgBotServices, error) {
	botAPI, err := s.BotAPI()
	if err != nil {
		return nil, err
	}
	dialog, err := s.DialogService(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to get dialog service")
		return nil, fmt.Errorf("bot service not initialized: %w", err)
	}
	s.botServiceOnce.Do(func() {
		s.botService = botServ.NewTgBot(botAPI, dialog, s.Metrics())
		logrus.Info("BotService initialized")
	})
	return s.botService, nil
}

// Reconciler returns the subscription reconciler notifying through the bot service.
func (s *ServiceProvider) Reconciler(ctx context.Context) (*botServ.Reconciler, error) {
	botService, err := s.BotService(ctx)
	if err != nil {
		return nil, err
	}
	subscriptions, err := s.SubscriptionStorage(ctx)
	if err != nil {
		return nil, err
	}
	s.reconcilerOnce.Do(func() {
		s.reconciler = botServ.NewReconciler(
			subscriptions.Repository,
			s.StationService(),
			s.TrainSearchService(),
			botService,
			s.Metrics(),
			s.cfg.EnvProcessPeriod,
			s.cfg.EnvRequestTimeout,
			s.cfg.EnvReconcileWorker,
		)
		logrus.Info("Reconciler initialized")
	})
	return s.reconciler, nil
}

// Handler returns the HTTP handler serving the webhook, health and metrics endpoints.
func (s *ServiceProvider) Handler(ctx context.Context) (*botHand.Handler, error) {
	botService, err := s.BotService(ctx)
	if err != nil {
		return nil, err
	}
	return botHand.NewHandler(ctx, botService, s.Registry()), nil
}
