// internal/config/config.go
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	BaseURL string `mapstructure:"base_url"`
	Store   struct {
		// Backend selects the KV store: "memory" or "redis".
		Backend   string `mapstructure:"backend"`
		RedisURL  string `mapstructure:"redis_url"`
		KeyPrefix string `mapstructure:"key_prefix"`
	} `mapstructure:"store"`
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
	Security struct {
		JWTSecret  string        `mapstructure:"jwt_secret"`
		AccessTTL  time.Duration `mapstructure:"access_ttl"`
		RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
		RequestID  struct {
			TrustHeader bool `mapstructure:"trust_header"`
		} `mapstructure:"request_id"`
		RateLimit struct {
			Enabled           bool          `mapstructure:"enabled"`
			RequestsPerMinute int           `mapstructure:"rpm"`
			Burst             int           `mapstructure:"burst"`
			TTL               time.Duration `mapstructure:"ttl"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"security"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
}

func Load() Config {
	viper.SetDefault("server.addr", "127.0.0.1:8080")
	// Sensible logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	// Store defaults
	viper.SetDefault("store.backend", "memory")
	viper.SetDefault("store.key_prefix", "microblog:")
	// Security defaults
	viper.SetDefault("security.access_ttl", "15m")
	viper.SetDefault("security.refresh_ttl", "720h")
	viper.SetDefault("security.request_id.trust_header", false)
	viper.SetDefault("security.rate_limit.enabled", true)
	viper.SetDefault("security.rate_limit.rpm", 120)
	viper.SetDefault("security.rate_limit.burst", 60)
	viper.SetDefault("security.rate_limit.ttl", "30m")
	viper.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	_ = viper.ReadInConfig()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// explicit bindings
	_ = viper.BindEnv("server.addr", "SERVER_ADDR")
	_ = viper.BindEnv("base_url", "BASE_URL")
	_ = viper.BindEnv("store.backend", "STORE_BACKEND")
	_ = viper.BindEnv("store.redis_url", "REDIS_URL")
	_ = viper.BindEnv("store.key_prefix", "STORE_KEY_PREFIX")
	_ = viper.BindEnv("logging.level", "LOG_LEVEL")
	_ = viper.BindEnv("logging.format", "LOG_FORMAT")
	_ = viper.BindEnv("security.jwt_secret", "JWT_SECRET")
	_ = viper.BindEnv("security.access_ttl", "ACCESS_TTL")
	_ = viper.BindEnv("security.refresh_ttl", "REFRESH_TTL")
	_ = viper.BindEnv("security.request_id.trust_header", "REQUEST_ID_TRUST_HEADER")
	_ = viper.BindEnv("security.rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = viper.BindEnv("security.rate_limit.rpm", "RATE_LIMIT_RPM")
	_ = viper.BindEnv("security.rate_limit.burst", "RATE_LIMIT_BURST")
	_ = viper.BindEnv("security.rate_limit.ttl", "RATE_LIMIT_TTL")

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		panic("config error: " + err.Error())
	}
	if strings.TrimSpace(c.Security.JWTSecret) == "" {
		panic("config error: security.jwt_secret/JWT_SECRET required")
	}
	return c
}
