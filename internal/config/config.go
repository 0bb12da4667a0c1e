package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config アプリケーション全体の設定
type Config struct {
	Gemini  GeminiConfig  `yaml:"gemini"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// GeminiConfig Gemini APIの設定
type GeminiConfig struct {
	APIKey           string        `yaml:"api_key"`
	Model            string        `yaml:"model"`
	BaseURL          string        `yaml:"base_url"`
	Timeout          time.Duration `yaml:"timeout"`
	ResponseLanguage string        `yaml:"response_language"`
}

// StorageConfig 解析結果の保存先の設定
//
// URLが空の場合、永続化は無効になる。
type StorageConfig struct {
	Driver      string        `yaml:"driver"` // supabase, mysql, postgres
	URL         string        `yaml:"url"`
	APIKey      string        `yaml:"api_key"`
	Table       string        `yaml:"table"`
	AutoMigrate bool          `yaml:"auto_migrate"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Enabled 永続化が有効かどうか
func (c StorageConfig) Enabled() bool {
	return c.URL != ""
}

// RedisConfig Redisの設定
type RedisConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SessionConfig セッションとプレビューの設定
type SessionConfig struct {
	MaxSessions     int           `yaml:"max_sessions"`
	TTL             time.Duration `yaml:"ttl"`
	PreviewCapacity int           `yaml:"preview_capacity"`
}

// LogConfig ログ出力の設定
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console, json
}

// LoadEnvFile .envファイルがあれば環境変数に読み込む
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Load 設定ファイルを読み込む
func Load(configPath string) (*Config, error) {
	// 設定ファイルが存在しない場合はデフォルト設定を返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 環境変数の展開
	dataStr := os.ExpandEnv(string(data))

	// 未指定の項目はデフォルト値を使う
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(dataStr), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// DefaultConfig デフォルト設定を返す
func DefaultConfig() *Config {
	return &Config{
		Gemini: GeminiConfig{
			APIKey:           firstEnv("GEMINI_API_KEY", "API_KEY"),
			Model:            "gemini-2.5-flash",
			BaseURL:          os.Getenv("GEMINI_BASE_URL"),
			Timeout:          60 * time.Second,
			ResponseLanguage: "Japanese",
		},
		Storage: StorageConfig{
			Driver:  envOr("STORAGE_DRIVER", "supabase"),
			URL:     firstEnv("STORAGE_URL", "SUPABASE_URL"),
			APIKey:  firstEnv("STORAGE_API_KEY", "SUPABASE_ANON_KEY"),
			Table:   "planet_analyses",
			Timeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     6379,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Session: SessionConfig{
			MaxSessions:     1024,
			TTL:             30 * time.Minute,
			PreviewCapacity: 2048,
		},
		Log: LogConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "console"),
		},
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
