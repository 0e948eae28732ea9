package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const serviceName = "mintpass"

// ServiceConfig holds the configuration of the challenge service
type ServiceConfig struct {
	Debug          bool                `mapstructure:"debug"`
	Server         ServerConfig        `mapstructure:"server"`
	Redis          RedisConfig         `mapstructure:"redis"`
	ChainProviders map[string][]string `mapstructure:"chain_providers"` // chain ticker -> rpc urls, first one used
	Receipts       ReceiptsConfig      `mapstructure:"receipts"`
	Events         EventsConfig        `mapstructure:"events"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // seconds
}

// RedisConfig holds the durable store configuration
type RedisConfig struct {
	URL       string `mapstructure:"url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ReceiptsConfig holds verdict receipt signing configuration
type ReceiptsConfig struct {
	SigningKeyPath string        `mapstructure:"signing_key_path"` // PEM encoded P-256 key, generated per process when empty
	TTL            time.Duration `mapstructure:"ttl"`
}

// EventsConfig holds verdict event publishing configuration
type EventsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Topic   string `mapstructure:"topic"`
}

// Addr returns the host:port the server listens on
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadServiceConfig loads configuration for the challenge service
func LoadServiceConfig(configFile string, envPath string) (*ServiceConfig, error) {
	v := configureViper(serviceName, configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.key_prefix", "mintpass:")
	v.SetDefault("receipts.ttl", "24h")
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.topic", "mintpass.challenge.verdict")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}

	var config ServiceConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	providers := make(map[string][]string, len(config.ChainProviders))
	for ticker, urls := range config.ChainProviders {
		providers[strings.ToLower(ticker)] = urls
	}
	config.ChainProviders = providers

	return &config, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("MINTPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// viper only maps env vars onto struct fields it knows about
	for _, key := range []string{
		"debug",
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"redis.url",
		"redis.key_prefix",
		"receipts.signing_key_path",
		"receipts.ttl",
		"events.enabled",
		"events.topic",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

// loadEnv loads .env files from envPath, later files overriding earlier ones
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}
