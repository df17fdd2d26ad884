package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel          string `env:"LOG_LEVEL"`
	Postgres          Postgres
	Telegram          Telegram
	Redis             Redis
	API               API
	Cache             Cache
	Jobs              Jobs
	Poller            Poller
	GoogleDrive       GoogleDrive
	SessionExpiration time.Duration `env:"SESSION_EXPIRATION"`
	StocksPerPage     int           `env:"STOCKS_PER_PAGE"`
	ImportLimit       int           `env:"IMPORT_LIMIT" envDefault:"100"`
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME"`
	MigrationDir    string `env:"PG_MIGRATION_DIR"`
}

type Telegram struct {
	Token            string        `env:"TELEGRAM_TOKEN"`
	ChatID           int64         `env:"TELEGRAM_CHAT_ID"`
	UpdTimeout       time.Duration `env:"TELEGRAM_UPD_TIMEOUT"`
	FileLimitInBytes int           `env:"TELEGRAM_FILE_LIMIT_IN_BYTES"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
}

type API struct {
	Debug    bool          `env:"API_DEBUG"`
	Timeout  time.Duration `env:"API_TIMEOUT"`
	QuoteApi QuoteApi
}

type QuoteApi struct {
	Url string `env:"QUOTE_API_URL"`
}

type Cache struct {
	QuotesExpiration time.Duration `env:"CACHE_QUOTES_EXPIRATION"`
}

type Jobs struct {
	EventSweepInterval time.Duration `env:"EVENT_SWEEP_JOB_INTERVAL"`
	BackupCrontab      string        `env:"BACKUP_JOB_CRONTAB" envDefault:"0 3 * * *"`
}

// Poller holds the quote poll intervals per market state.
// NoNetworkMax caps the offline backoff doubling.
type Poller struct {
	Regular      time.Duration `env:"POLL_REGULAR_INTERVAL" envDefault:"2s"`
	PrePost      time.Duration `env:"POLL_PREPOST_INTERVAL" envDefault:"1m"`
	Extended     time.Duration `env:"POLL_EXTENDED_INTERVAL" envDefault:"15m"`
	Closed       time.Duration `env:"POLL_CLOSED_INTERVAL" envDefault:"1h"`
	Fallback     time.Duration `env:"POLL_FALLBACK_INTERVAL" envDefault:"1m"`
	NoNetworkMax time.Duration `env:"POLL_NO_NETWORK_MAX_INTERVAL" envDefault:"2m"`
}

type GoogleDrive struct {
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE"`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"720h"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
