package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	NATS    NATSConfig    `mapstructure:"nats"`
	Locale  LocaleConfig  `mapstructure:"locale"`
	Log     LogConfig     `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	Insecure  bool          `mapstructure:"insecure"` // skip TLS verification, local backends only
}

type StorageConfig struct {
	Dir          string `mapstructure:"dir"`
	TokenBackend string `mapstructure:"token_backend"` // file or redis
}

type RedisConfig struct {
	URL       string `mapstructure:"url"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"` // empty disables event publishing
}

type LocaleConfig struct {
	Language string `mapstructure:"language"`
	Theme    string `mapstructure:"theme"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const (
	TokenBackendFile  = "file"
	TokenBackendRedis = "redis"
)

// Load builds the configuration from the environment. A .env file in the
// working directory is read first when present; real environment variables
// win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		API: APIConfig{
			BaseURL:   getEnv("PAKBOOKING_API_URL", "http://127.0.0.1:8000/api"),
			Timeout:   getDuration("PAKBOOKING_API_TIMEOUT", 10*time.Second),
			UserAgent: getEnv("PAKBOOKING_USER_AGENT", "pakbooking-cli"),
			Insecure:  getBool("PAKBOOKING_API_INSECURE", false),
		},
		Storage: StorageConfig{
			Dir:          getEnv("PAKBOOKING_STATE_DIR", defaultStateDir()),
			TokenBackend: getEnv("PAKBOOKING_TOKEN_BACKEND", TokenBackendFile),
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", "redis://localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "pakbooking"),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Locale: LocaleConfig{
			Language: getEnv("PAKBOOKING_LANGUAGE", "en"),
			Theme:    getEnv("PAKBOOKING_THEME", "dark"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "warn"),
		},
	}
}

// LoadFile overlays a YAML config file on top of the environment-derived
// configuration. Keys absent from the file keep their env/default values.
func LoadFile(path string) (*Config, error) {
	cfg := Load()

	if _, err := os.Stat(path); err != nil {
		return cfg, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return cfg, err
	}

	if err := v.Unmarshal(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DefaultConfigPath is where the CLI looks for an optional config file.
func DefaultConfigPath() string {
	return filepath.Join(defaultStateDir(), "config.yaml")
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pakbooking"
	}
	return filepath.Join(home, ".pakbooking")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
