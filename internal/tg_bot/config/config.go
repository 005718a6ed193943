package config

import (
	"errors"
	"flag"
	"fmt"
	"github.com/caarlos0/env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"io/fs"
	"os"
	"time"
)

const envFileName = "bot.env"

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel   string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	EnvLogFileName string `env:"LOG_FILE_NAME" envDefault:"trainBot.log"`
	EnvBotToken    string `env:"TOKEN_BOT" validate:"required"` // Telegram Bot Token for authentication with the Telegram API
	EnvBotMode     string `env:"BOT_MODE" envDefault:"polling" validate:"oneof=polling webhook"`
	EnvWebhookURL  string `env:"WEBHOOK_URL" validate:"required_if=EnvBotMode webhook"` // Public URL Telegram posts updates to
	EnvHTTPAddress string `env:"HTTP_ADDRESS" envDefault:":8080"`                       // Webhook, health and metrics listener

	EnvStorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory" validate:"oneof=memory mongo mysql"`
	EnvMongoURI      string `env:"MONGO_URI" validate:"required_if=EnvStorageDriver mongo"`
	EnvMongoDB       string `env:"MONGO_DB" envDefault:"train_bot"`
	EnvMySQLDSN      string `env:"MYSQL_DSN" validate:"required_if=EnvStorageDriver mysql"`

	EnvSessionDriver   string        `env:"SESSION_DRIVER" envDefault:"memory" validate:"oneof=memory badger"`
	EnvSessionFilePath string        `env:"SESSION_FILE_PATH" envDefault:"sessions.json"` // Snapshot file of the memory session driver
	EnvBadgerPath      string        `env:"BADGER_PATH" envDefault:"data/sessions"`
	EnvSessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"168h" validate:"gte=0"`
	EnvSessionSave     time.Duration `env:"SESSION_SAVE_PERIOD" envDefault:"5m" validate:"gt=0"`

	EnvStationAPIEndpoint string `env:"STATION_API_ENDPOINT" envDefault:"https://pass.rzd.ru/suggester" validate:"url"`
	EnvRIDEndpoint        string `env:"TRAIN_SEARCH_RID_ENDPOINT" envDefault:"https://pass.rzd.ru/timetable/public/ru?layer_id=5827" validate:"url"`
	EnvDataEndpoint       string `env:"TRAIN_SEARCH_DATA_ENDPOINT" envDefault:"https://pass.rzd.ru/timetable/public/ru?layer_id=5827" validate:"url"`
	EnvUserAgent          string `env:"USER_AGENT"`

	EnvProcessPeriod   time.Duration `env:"SUBSCRIPTIONS_PROCESS_PERIOD" envDefault:"10m" validate:"gt=0"`
	EnvReconcileWorker int           `env:"RECONCILE_WORKERS" envDefault:"4" validate:"gte=1"`
	EnvRequestTimeout  time.Duration `env:"EXTERNAL_REQUEST_TIMEOUT" envDefault:"30s" validate:"gt=0"`
}

// NewConfig loads bot.env when present, reads the environment and the -l flag, and validates the result.
func NewConfig() (*Config, error) {
	return load(envFileName, os.Args[1:])
}

func load(envFile string, args []string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
		logrus.Infof("%s not found, using process environment", envFile)
	}

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	flags := flag.NewFlagSet("tgbot", flag.ContinueOnError)
	flags.StringVar(&config.EnvLogsLevel, "l", config.EnvLogsLevel, "Set logging level")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
