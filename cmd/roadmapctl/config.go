package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	defaultServerURL = "http://localhost:8091/api"
	defaultTimeout   = 30 * time.Second
)

// Config 保存 CLI 全局配置
type Config struct {
	ServerURL string        `yaml:"server_url"`
	Token     string        `yaml:"token"`
	Output    string        `yaml:"output"`
	Timeout   time.Duration `yaml:"timeout"`
	Verbose   bool          `yaml:"-"`
}

// LoadConfig 从命令行标志、环境变量、配置文件加载配置（优先级从高到低）
func LoadConfig(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{}

	if err := loadConfigFile(cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖配置文件
	if v := os.Getenv("ROADMAP_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("ROADMAP_TOKEN"); v != "" {
		cfg.Token = v
	}

	// 命令行标志覆盖环境变量
	if v, _ := cmd.Flags().GetString("server-url"); v != "" {
		cfg.ServerURL = v
	}
	if v, _ := cmd.Flags().GetString("token"); v != "" {
		cfg.Token = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Output = v
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	cfg.Verbose, _ = cmd.Flags().GetBool("verbose")

	// 默认值
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}
	if cfg.Output == "" {
		cfg.Output = "text"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Output != "text" && cfg.Output != "json" {
		return nil, fmt.Errorf("invalid --output %q: must be json or text", cfg.Output)
	}
	return cfg, nil
}

// configPath 返回 ~/.roadmapctl/config.yaml
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".roadmapctl", "config.yaml"), nil
}

// loadConfigFile 读取配置文件；文件不存在不是错误
func loadConfigFile(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// addGlobalFlags 为 root 命令添加全局标志
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("server-url", "", fmt.Sprintf("路线图 API 地址 (env: ROADMAP_SERVER_URL, 默认: %s)", defaultServerURL))
	cmd.PersistentFlags().String("token", "", "认证令牌 (env: ROADMAP_TOKEN)")
	cmd.PersistentFlags().StringP("output", "o", "", "输出格式: json / text (默认: text)")
	cmd.PersistentFlags().Duration("timeout", defaultTimeout, "单次请求超时")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "输出调试日志到 stderr")
}
