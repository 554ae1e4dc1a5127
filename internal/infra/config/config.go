package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов каталога.
// Вся конфигурация передаётся компонентам явно, глобального состояния нет.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	TZ          string `envconfig:"TZ" default:"Europe/Amsterdam"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsPort int    `envconfig:"METRICS_PORT" default:"9090"`

	Telegram struct {
		Token string `envconfig:"TG_BOT_TOKEN"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Auth struct {
		MaxAge     time.Duration `envconfig:"AUTH_MAX_AGE" default:"24h"`
		SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"720h"`
		LoginURL   string        `envconfig:"LOGIN_URL" default:"/login"`
	} `envconfig:""`

	Roles struct {
		SuperAdmins []int64 `envconfig:"SUPER_ADMIN_IDS"`
		Moderators  []int64 `envconfig:"MODERATOR_IDS"`
		Editors     []int64 `envconfig:"EDITOR_IDS"`
	} `envconfig:""`

	Cache struct {
		TTL        time.Duration `envconfig:"CACHE_TTL" default:"5m"`
		MaxEntries int           `envconfig:"CACHE_MAX_ENTRIES" default:"1024"`
	} `envconfig:""`

	Listing struct {
		PageSize int `envconfig:"LISTING_PAGE_SIZE" default:"20"`
	} `envconfig:""`

	Queues struct {
		Moderation    string `envconfig:"MODERATION_QUEUE_KEY" default:"moderation_events"`
		RabbitURL     string `envconfig:"RABBITMQ_URL"`
		RabbitMgmtURL string `envconfig:"RABBITMQ_MANAGEMENT_URL"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
