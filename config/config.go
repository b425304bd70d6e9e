// Package config 读取命令行的 TOML 配置文件。命令行参数优先于配置文件。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config 对应 textdeco.toml。
type Config struct {
	Input    string `toml:"in"`
	Output   string `toml:"out"`
	Format   string `toml:"format"`
	Data     string `toml:"data"`
	BaseDir  string `toml:"base_dir"`
	Debug    string `toml:"debug"`
	LogLevel string `toml:"log_level"`
	Watch    bool   `toml:"watch"`

	// Fonts 与 Images 将 built-in:<name> 映射到文件，路径相对于配置文件所在目录。
	Fonts  map[string]string `toml:"fonts"`
	Images map[string]string `toml:"images"`
}

// Default 返回未提供配置文件时的默认值。
func Default() Config {
	return Config{
		Input:    "examples/decorations.textdeco",
		Output:   "output/decorations.pdf",
		Format:   "pdf",
		LogLevel: "info",
	}
}

// Load 读取 path 并覆盖默认值。path 为空或文件不存在时返回默认配置。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cfg, fmt.Errorf("配置 %s:%d:%d: %s", path, row, col, derr.String())
		}
		return cfg, fmt.Errorf("解析配置 %s 失败: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg.Fonts = resolvePaths(dir, cfg.Fonts)
	cfg.Images = resolvePaths(dir, cfg.Images)
	if _, err := cfg.Level(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func resolvePaths(dir string, m map[string]string) map[string]string {
	for name, p := range m {
		if p != "" && !filepath.IsAbs(p) {
			m[name] = filepath.Join(dir, p)
		}
	}
	return m
}

// Level 解析 log_level，空值视为 info。
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if strings.TrimSpace(c.LogLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("未知的日志级别 %q", c.LogLevel)
	}
	return lvl, nil
}
