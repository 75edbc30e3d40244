package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 统一配置结构
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	API      APIConfig
	Security SecurityConfig
	Editor   EditorConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env  string // dev, staging, production
	Port string
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
	File   string
}

// APIConfig 路线图后端 REST API 配置
type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWTSecret string
}

// EditorConfig 编辑器行为配置
type EditorConfig struct {
	BulkConcurrency int
	HistorySize     int
	ViewStateFile   string
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("ROADMAP_API_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROADMAP_API_TIMEOUT: %w", err)
	}
	bulk, err := strconv.Atoi(getEnv("BULK_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid BULK_CONCURRENCY: %w", err)
	}
	history, err := strconv.Atoi(getEnv("HISTORY_SIZE", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_SIZE: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Env:  getEnv("ENV", "dev"),
			Port: getEnv("PORT", "8090"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			File:   getEnv("LOG_FILE", ""),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("ROADMAP_API_URL", "http://localhost:8091/api"), "/"),
			Token:   getEnv("ROADMAP_API_TOKEN", ""),
			Timeout: timeout,
		},
		Security: SecurityConfig{
			JWTSecret: getEnv("CONSOLE_JWT_SECRET", ""),
		},
		Editor: EditorConfig{
			BulkConcurrency: bulk,
			HistorySize:     history,
			ViewStateFile:   getEnv("VIEW_STATE_FILE", ""),
		},
	}, nil
}

// ValidateConfig 验证配置的有效性，一次性列出全部问题
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.Server.Env == "production" {
		if cfg.Security.JWTSecret == "" {
			errors = append(errors, "CONSOLE_JWT_SECRET is required in production environment")
		} else if len(cfg.Security.JWTSecret) < 32 {
			errors = append(errors, "CONSOLE_JWT_SECRET must be at least 32 characters long")
		}
	}

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	if u, err := url.Parse(cfg.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid ROADMAP_API_URL: %s", cfg.API.BaseURL))
	}
	if cfg.API.Timeout <= 0 {
		errors = append(errors, "ROADMAP_API_TIMEOUT must be positive")
	}

	if cfg.Editor.BulkConcurrency < 1 || cfg.Editor.BulkConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid BULK_CONCURRENCY: %d (must be 1-64)", cfg.Editor.BulkConcurrency))
	}
	if cfg.Editor.HistorySize < 1 {
		errors = append(errors, fmt.Sprintf("invalid HISTORY_SIZE: %d (must be positive)", cfg.Editor.HistorySize))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[cfg.Log.Format] {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be: text, json)", cfg.Log.Format))
	}

	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// AuthEnabled reports whether API requests need a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.Security.JWTSecret != ""
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Logging:
    - Level: %s
    - Format: %s
    - File: %s
  Roadmap API:
    - Base URL: %s
    - Token: %s
    - Timeout: %s
  Security:
    - JWT Secret: %s
  Editor:
    - Bulk Concurrency: %d
    - History Size: %d
    - View State File: %s`,
		c.Server.Env,
		c.Server.Port,
		c.Log.Level,
		c.Log.Format,
		orNotSet(c.Log.File),
		c.API.BaseURL,
		maskSecret(c.API.Token),
		c.API.Timeout,
		maskSecret(c.Security.JWTSecret),
		c.Editor.BulkConcurrency,
		c.Editor.HistorySize,
		orNotSet(c.Editor.ViewStateFile),
	)
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func orNotSet(v string) string {
	if v == "" {
		return "<not set>"
	}
	return v
}

// maskSecret 对敏感信息进行脱敏
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}
