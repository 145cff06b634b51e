package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Events EventsConfig `yaml:"events"`
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// StoreConfig selects and locates the item backing store.
type StoreConfig struct {
	Driver   string `yaml:"driver"`
	DataFile string `yaml:"dataFile"`
	DSN      string `yaml:"dsn"`
}

// LogConfig controls the process-wide slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// EventsConfig sizes the change-feed subscriber buffers.
type EventsConfig struct {
	Buffer int `yaml:"buffer"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", AllowedOrigins: []string{"*"}},
		Store:  StoreConfig{Driver: DriverFile, DataFile: "app/data.json", DSN: "app/data.db"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Events: EventsConfig{Buffer: 16},
	}
}

// Load 从 CONFIG_FILE (可选的 YAML 文件) 和环境变量加载配置，环境变量优先。
func Load() (*Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if cfg.Server.Addr != "" {
		addr, err := normalizeAddr(cfg.Server.Addr)
		if err != nil {
			return err
		}
		cfg.Server.Addr = addr
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		addr, err := normalizeAddr(port)
		if err != nil {
			return err
		}
		cfg.Server.Addr = addr
	}

	if origins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}

	cfg.Store.Driver = strings.ToLower(getEnvOrDefault("STORE_DRIVER", cfg.Store.Driver))
	cfg.Store.DataFile = getEnvOrDefault("DATA_FILE", cfg.Store.DataFile)
	cfg.Store.DSN = getEnvOrDefault("SQLITE_DSN", cfg.Store.DSN)

	cfg.Log.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(getEnvOrDefault("LOG_FORMAT", cfg.Log.Format))

	buffer, err := parseOptionalIntEnv("EVENT_BUFFER")
	if err != nil {
		return err
	}
	if buffer != nil {
		cfg.Events.Buffer = *buffer
	}
	return nil
}

func (c Config) validate() error {
	switch c.Store.Driver {
	case DriverFile:
		if strings.TrimSpace(c.Store.DataFile) == "" {
			return fmt.Errorf("DATA_FILE must not be empty for the file store")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("SQLITE_DSN must not be empty for the sqlite store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER value %q: want file, sqlite or memory", c.Store.Driver)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT value %q: want text or json", c.Log.Format)
	}

	if c.Events.Buffer < 1 {
		return fmt.Errorf("invalid EVENT_BUFFER value %d: must be positive", c.Events.Buffer)
	}
	return nil
}

// SlogLevel maps the configured level name onto slog.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL value %q: %w", c.Level, err)
	}
	return level, nil
}

// normalizeAddr 解析服务器监听地址。
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	return ":" + port, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
