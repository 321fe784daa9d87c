package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	EnvConfigPath     = "STOREFRONT_CONFIG"
	defaultConfigPath = ".env"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	SequenceBackendRedis = "redis"
	SequenceBackendDB    = "db"
)

/*
初始化與讀取分開
init : 設置 viper watch 與 OnConfigChange
read : 一般讀取，需要讀寫鎖
*/
var configSingleton *ConfigSingleton
var muOnce sync.Once

type ConfigSingleton struct {
	config *Config
	mu     sync.RWMutex
}

type Config struct {
	ModuleName string `mapstructure:"MODULE_NAME"`
	ServerPort string `mapstructure:"SERVER_PORT"`
	// postgres / memory
	StoreBackend string `mapstructure:"STORE_BACKEND"`

	DbName string `mapstructure:"POSTGRES_DB"`
	DbHost string `mapstructure:"POSTGRES_HOST"`
	DbPort string `mapstructure:"POSTGRES_PORT"`
	DbUser string `mapstructure:"POSTGRES_USER"`
	DbPas  string `mapstructure:"POSTGRES_PASSWORD"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	// redis / db
	OrderSequenceBackend string `mapstructure:"ORDER_SEQUENCE_BACKEND"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"` // 逗號分隔，空字串代表不發送事件
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC"`

	MidtransServerKey    string        `mapstructure:"MIDTRANS_SERVER_KEY"`
	MidtransClientKey    string        `mapstructure:"MIDTRANS_CLIENT_KEY"`
	MidtransIsProduction bool          `mapstructure:"MIDTRANS_IS_PRODUCTION"`
	MidtransSnapURL      string        `mapstructure:"MIDTRANS_SNAP_URL"`
	MidtransCoreURL      string        `mapstructure:"MIDTRANS_CORE_URL"`
	FrontendURL          string        `mapstructure:"FRONTEND_URL"`
	GatewayTimeout       time.Duration `mapstructure:"GATEWAY_TIMEOUT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	CheckoutRateCapacity int `mapstructure:"CHECKOUT_RATE_CAPACITY"`
	CheckoutRatePerSec   int `mapstructure:"CHECKOUT_RATE_PER_SEC"`
}

var defaults = map[string]any{
	"MODULE_NAME":            "storefront",
	"SERVER_PORT":            "8080",
	"STORE_BACKEND":          StoreBackendPostgres,
	"POSTGRES_DB":            "storefront",
	"POSTGRES_HOST":          "localhost",
	"POSTGRES_PORT":          "5432",
	"POSTGRES_USER":          "postgres",
	"POSTGRES_PASSWORD":      "",
	"REDIS_ADDR":             "localhost:6379",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"ORDER_SEQUENCE_BACKEND": SequenceBackendRedis,
	"KAFKA_BROKERS":          "",
	"KAFKA_ORDER_TOPIC":      "storefront.order-events",
	"MIDTRANS_SERVER_KEY":    "",
	"MIDTRANS_CLIENT_KEY":    "",
	"MIDTRANS_IS_PRODUCTION": false,
	"MIDTRANS_SNAP_URL":      "",
	"MIDTRANS_CORE_URL":      "",
	"FRONTEND_URL":           "http://localhost:3000",
	"GATEWAY_TIMEOUT":        "15s",
	"LOG_LEVEL":              "info",
	"LOG_FORMAT":             "json",
	"CHECKOUT_RATE_CAPACITY": 5,
	"CHECKOUT_RATE_PER_SEC":  1,
}

// KafkaBrokerList 去除空白後的 broker 清單
func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case StoreBackendPostgres, StoreBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	switch c.OrderSequenceBackend {
	case SequenceBackendRedis, SequenceBackendDB:
	default:
		errs = append(errs, fmt.Errorf("unknown ORDER_SEQUENCE_BACKEND %q", c.OrderSequenceBackend))
	}
	if c.StoreBackend == StoreBackendMemory && c.OrderSequenceBackend == SequenceBackendDB {
		errs = append(errs, errors.New("ORDER_SEQUENCE_BACKEND=db requires STORE_BACKEND=postgres"))
	}
	if c.MidtransServerKey == "" {
		errs = append(errs, errors.New("MIDTRANS_SERVER_KEY is required"))
	}
	if c.GatewayTimeout <= 0 {
		errs = append(errs, errors.New("GATEWAY_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		// 沒有設定檔時只使用環境變數
		return v, nil
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return v, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cf, nil
}

// Load 單純回傳錯誤，由外部決定要不要 Fatal
func Load(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	return unmarshal(v)
}

func configPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return defaultConfigPath
}

func GetConfig() *Config {
	initConfig()
	configSingleton.mu.RLock()
	defer configSingleton.mu.RUnlock()
	return configSingleton.config
}

func initConfig() {
	muOnce.Do(func() {
		configSingleton = &ConfigSingleton{}
		path := configPath()
		v, err := newViper(path)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read config")
		}
		cf, err := unmarshal(v)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read config")
		}
		configSingleton.config = cf

		if v.ConfigFileUsed() == "" {
			return
		}
		if _, err := os.Stat(path); err != nil {
			return
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			cf, err := unmarshal(v)
			if err != nil {
				log.Error().Err(err).Str("file", e.Name).Msg("failed to reload config, keep previous values")
				return
			}
			configSingleton.mu.Lock()
			configSingleton.config = cf
			configSingleton.mu.Unlock()
			log.Info().Str("file", e.Name).Msg("config reloaded")
		})
		v.WatchConfig()
	})
}
