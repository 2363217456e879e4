package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PHARMWATCH"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	Portal PortalConfig
	Ingest IngestConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PHARMWATCH_APP_ENV" default:"dev"`
	Port         string `envconfig:"PHARMWATCH_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PHARMWATCH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHARMWATCH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Path        string `envconfig:"PHARMWATCH_DB_PATH" default:"pharmwatch.db"`
	BusyTimeout int    `envconfig:"PHARMWATCH_DB_BUSY_TIMEOUT_MS" default:"5000"`
	AutoMigrate bool   `envconfig:"PHARMWATCH_DB_AUTO_MIGRATE" default:"true"`
}

// DSN renders the sqlite connection string with the WAL pragmas the
// loader relies on.
func (db DBConfig) DSN() string {
	return fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=%d",
		db.Path, db.BusyTimeout,
	)
}

type PortalConfig struct {
	BaseURL         string        `envconfig:"PHARMWATCH_PORTAL_BASE_URL" default:"https://prices.super-pharm.co.il/"`
	ListTimeout     time.Duration `envconfig:"PHARMWATCH_PORTAL_LIST_TIMEOUT" default:"60s"`
	DownloadTimeout time.Duration `envconfig:"PHARMWATCH_PORTAL_DOWNLOAD_TIMEOUT" default:"3m"`
	UserAgent       string        `envconfig:"PHARMWATCH_PORTAL_USER_AGENT" default:"pharmwatch-fetch/1.0"`
	DataDir         string        `envconfig:"PHARMWATCH_PORTAL_DATA_DIR" default:"./data"`
	PageSize        int           `envconfig:"PHARMWATCH_PORTAL_PAGE_SIZE" default:"10"`
}

type IngestConfig struct {
	ChainID string `envconfig:"PHARMWATCH_INGEST_CHAIN_ID" default:"7290172900007"`
}
