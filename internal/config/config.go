package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cron       CronConfig       `mapstructure:"cron"`
	Game       GameConfig       `mapstructure:"game"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Prices     PricesConfig     `mapstructure:"prices"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// RedisConfig is optional: with an empty Addr the settlement lock falls back
// to an in-process locker.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CronConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Settlement string `mapstructure:"settlement"`
	PriceSync  string `mapstructure:"price_sync"`
}

// GameConfig fixes the round grid: rounds are consecutive windows of
// RoundDuration starting at InitialRoundTimestamp.
type GameConfig struct {
	InitialRoundTimestamp int64         `mapstructure:"initial_round_timestamp"`
	RoundDuration         time.Duration `mapstructure:"round_duration"`
	Assets                []string      `mapstructure:"assets"`
	AssetsPerRound        int           `mapstructure:"assets_per_round"`
	AssetsSecret          string        `mapstructure:"assets_secret"`
}

type SettlementConfig struct {
	RewardStrategy      string        `mapstructure:"reward_strategy"`
	BaseAssetCoins      float64       `mapstructure:"base_asset_coins"`
	PageSize            int           `mapstructure:"page_size"`
	ItemTimeout         time.Duration `mapstructure:"item_timeout"`
	LockTTL             time.Duration `mapstructure:"lock_ttl"`
	MaxInactivityRounds int64         `mapstructure:"max_inactivity_rounds"`
}

type PricesConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	SnapshotThreshold time.Duration `mapstructure:"snapshot_threshold"`
	HistoryLimit      int           `mapstructure:"history_limit"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("UD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.settlement", "@every 30m")
	v.SetDefault("cron.price_sync", "@every 5m")
	v.SetDefault("game.initial_round_timestamp", 1728032400)
	v.SetDefault("game.round_duration", "1h")
	v.SetDefault("game.assets", []string{
		"BTC", "ETH", "SOL", "BNB", "XRP", "DOGE", "ADA", "AVAX", "DOT", "LTC",
	})
	v.SetDefault("game.assets_per_round", 3)
	v.SetDefault("game.assets_secret", "")
	v.SetDefault("settlement.reward_strategy", "streak")
	v.SetDefault("settlement.base_asset_coins", 10)
	v.SetDefault("settlement.page_size", 100)
	v.SetDefault("settlement.item_timeout", "10s")
	v.SetDefault("settlement.lock_ttl", "25m")
	v.SetDefault("settlement.max_inactivity_rounds", 8)
	v.SetDefault("prices.base_url", "https://min-api.cryptocompare.com")
	v.SetDefault("prices.timeout", "15s")
	v.SetDefault("prices.snapshot_threshold", "62m")
	v.SetDefault("prices.history_limit", 48)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
