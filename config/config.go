package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

// ErrInvalidSetting 配置项取值非法
var ErrInvalidSetting = errors.New("invalid setting")

const (
	DefaultSyncInterval = 30000 // ms
	DefaultTheme        = "system"
	configFileName      = "config.yaml"
)

// Settings 持久化到配置文件的内容
type Settings struct {
	Server        ServerConfig   `yaml:"server" json:"server"`
	Database      DatabaseConfig `yaml:"database" json:"database"`
	SkillRepoPath string         `yaml:"skill_repo_path" json:"skillRepoPath"`
	SyncInterval  int            `yaml:"sync_interval" json:"syncInterval"`
	AutoSync      bool           `yaml:"auto_sync" json:"autoSync"`
	Theme         string         `yaml:"theme" json:"theme"` // light, dark, system
}

type ServerConfig struct {
	Port string `yaml:"port" json:"port"`
	Host string `yaml:"host" json:"host"`
	Mode string `yaml:"mode" json:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type" json:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn" json:"dsn"`
}

// Patch 部分更新，nil 字段保持不变
type Patch struct {
	SkillRepoPath *string `json:"skillRepoPath"`
	SyncInterval  *int    `json:"syncInterval"`
	AutoSync      *bool   `json:"autoSync"`
	Theme         *string `json:"theme"`
}

// Config 进程配置。显式创建并注入，不使用全局单例
type Config struct {
	mu       sync.RWMutex
	path     string
	homeDir  string
	settings Settings
}

// DefaultDir 配置目录：SKILL_SYNC_CONFIG_DIR 或 ~/.skill-sync
func DefaultDir() string {
	if dir := os.Getenv("SKILL_SYNC_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".skill-sync")
}

// DefaultPath 配置文件路径，CONFIG_PATH 优先
func DefaultPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return filepath.Join(DefaultDir(), configFileName)
}

func defaultSettings(dataDir string) Settings {
	return Settings{
		Server: ServerConfig{
			Port: "3001",
			Host: "127.0.0.1",
			Mode: "release",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  filepath.Join(dataDir, "skillsync.db"),
		},
		SyncInterval: DefaultSyncInterval,
		AutoSync:     false,
		Theme:        DefaultTheme,
	}
}

// Load 读取配置文件；文件不存在时使用默认值，解析失败时记录日志并回退默认值
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	c := &Config{
		path:     path,
		homeDir:  home,
		settings: defaultSettings(filepath.Dir(path)),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		loaded := c.settings
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			klog.Errorf("[config.Load] 解析配置文件失败，使用默认配置: path=%s, error=%v", path, err)
		} else {
			c.settings = loaded
		}
	}
	return c, nil
}

// Path 配置文件路径
func (c *Config) Path() string {
	return c.path
}

// Snapshot 返回当前配置副本（含环境变量覆盖）
func (c *Config) Snapshot() Settings {
	c.mu.RLock()
	s := c.settings
	c.mu.RUnlock()

	s.Server = applyServerEnv(s.Server)
	s.Database = applyDatabaseEnv(s.Database)
	s.SkillRepoPath = c.SkillRepoPath()
	return s
}

// 环境变量优先级高于配置文件，但不写回配置文件
func applyServerEnv(s ServerConfig) ServerConfig {
	if port := os.Getenv("PORT"); port != "" {
		s.Port = port
	}
	if host := os.Getenv("HOST"); host != "" {
		s.Host = host
	}
	return s
}

func applyDatabaseEnv(d DatabaseConfig) DatabaseConfig {
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		d.Type = dbType
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		d.DSN = dsn
	}
	return d
}

// SkillRepoPath 规范仓库路径：SKILL_SYNC_REPO_PATH > 配置文件 > ~/.skill-sync/skills
func (c *Config) SkillRepoPath() string {
	if p := os.Getenv("SKILL_SYNC_REPO_PATH"); p != "" {
		return p
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.settings.SkillRepoPath != "" {
		return c.settings.SkillRepoPath
	}
	return filepath.Join(c.homeDir, ".skill-sync", "skills")
}

// EnsureSkillRepo 返回规范仓库路径，不存在时创建
func (c *Config) EnsureSkillRepo() (string, error) {
	p := c.SkillRepoPath()
	if err := os.MkdirAll(p, 0755); err != nil {
		return "", fmt.Errorf("failed to create skill repository %s: %w", p, err)
	}
	return p, nil
}

// Update 应用部分更新并写回配置文件。校验失败时配置不变
func (c *Config) Update(patch Patch) (Settings, error) {
	c.mu.Lock()
	next := c.settings
	if patch.SkillRepoPath != nil {
		next.SkillRepoPath = *patch.SkillRepoPath
	}
	if patch.SyncInterval != nil {
		if *patch.SyncInterval <= 0 {
			c.mu.Unlock()
			return Settings{}, fmt.Errorf("%w: syncInterval must be positive", ErrInvalidSetting)
		}
		next.SyncInterval = *patch.SyncInterval
	}
	if patch.AutoSync != nil {
		next.AutoSync = *patch.AutoSync
	}
	if patch.Theme != nil {
		switch *patch.Theme {
		case "light", "dark", "system":
			next.Theme = *patch.Theme
		default:
			c.mu.Unlock()
			return Settings{}, fmt.Errorf("%w: theme %q", ErrInvalidSetting, *patch.Theme)
		}
	}
	c.settings = next
	err := c.saveLocked()
	c.mu.Unlock()

	if err != nil {
		return Settings{}, err
	}
	return c.Snapshot(), nil
}

// Save 写回配置文件
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saveLocked()
}

func (c *Config) saveLocked() error {
	data, err := yaml.Marshal(c.settings)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}
