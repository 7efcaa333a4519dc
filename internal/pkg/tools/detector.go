package tools

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"k8s.io/klog/v2"
)

// Detector 工具探测器。不缓存结果，每次调用都反映主机当前状态
type Detector struct {
	homeDir     string
	goos        string
	lookPath    func(file string) (string, error)
	definitions []Definition
}

// Option 探测器选项
type Option func(*Detector)

// WithHomeDir 指定用户主目录
func WithHomeDir(dir string) Option {
	return func(d *Detector) { d.homeDir = dir }
}

// WithLookPath 替换可执行文件查找函数
func WithLookPath(fn func(file string) (string, error)) Option {
	return func(d *Detector) { d.lookPath = fn }
}

// WithGOOS 指定操作系统（影响扩展/插件目录位置）
func WithGOOS(goos string) Option {
	return func(d *Detector) { d.goos = goos }
}

// WithDefinitions 替换工具目录
func WithDefinitions(defs []Definition) Option {
	return func(d *Detector) { d.definitions = defs }
}

// NewDetector 创建探测器
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		goos:        runtime.GOOS,
		lookPath:    exec.LookPath,
		definitions: Definitions(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.homeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			klog.Warningf("[tools.NewDetector] 获取用户主目录失败: error=%v", err)
		}
		d.homeDir = home
	}
	return d
}

// HomeDir 返回探测器使用的主目录
func (d *Detector) HomeDir() string {
	return d.homeDir
}

// Definitions 返回探测器使用的工具目录
func (d *Detector) Definitions() []Definition {
	return d.definitions
}

// DetectAll 按注册顺序探测全部工具
func (d *Detector) DetectAll() []Tool {
	result := make([]Tool, 0, len(d.definitions))
	for _, def := range d.definitions {
		result = append(result, d.detect(def))
	}
	return result
}

// Detect 探测单个工具
func (d *Detector) Detect(toolID string) (Tool, error) {
	def, ok := Lookup(d.definitions, toolID)
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", ErrToolNotSupported, toolID)
	}
	return d.detect(def), nil
}

// DetectedTools 返回当前主机上探测到的工具
func (d *Detector) DetectedTools() []Tool {
	var detected []Tool
	for _, tool := range d.DetectAll() {
		if tool.Detected {
			detected = append(detected, tool)
		}
	}
	return detected
}

func (d *Detector) detect(def Definition) Tool {
	_, err := os.Stat(filepath.Join(d.homeDir, filepath.FromSlash(def.SkillPath)))
	return Tool{
		Definition: def,
		Detected:   d.isDetected(def),
		Installed:  err == nil,
	}
}

func (d *Detector) isDetected(def Definition) bool {
	switch def.Category {
	case CategoryCLI:
		return d.isCLIDetected(def)
	case CategoryIDE:
		return d.isIDEDetected(def)
	case CategoryVSCodeExtension:
		return d.isVSCodeExtensionDetected(def)
	case CategoryJetBrainsPlugin:
		return d.isJetBrainsPluginDetected(def)
	default:
		return false
	}
}

func (d *Detector) isCLIDetected(def Definition) bool {
	commands := def.Commands
	if len(commands) == 0 {
		commands = []string{def.Name}
	}
	for _, cmd := range commands {
		if _, err := d.lookPath(cmd); err == nil {
			return true
		}
	}
	return false
}

func (d *Detector) isIDEDetected(def Definition) bool {
	for _, p := range def.InstallPaths {
		if _, err := os.Stat(d.expandHome(p)); err == nil {
			return true
		}
	}
	return false
}

func (d *Detector) isVSCodeExtensionDetected(def Definition) bool {
	entries, err := os.ReadDir(filepath.Join(d.homeDir, ".vscode", "extensions"))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if matchesAnyPrefix(entry.Name(), def.ExtensionPatterns) {
			return true
		}
	}
	return false
}

// isJetBrainsPluginDetected 在所有 IDE 版本目录的 plugins/ 下查找插件
func (d *Detector) isJetBrainsPluginDetected(def Definition) bool {
	root := d.jetBrainsConfigDir()
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return false
	}
	plugins, err := doublestar.Glob(os.DirFS(root), "*/plugins/*")
	if err != nil {
		return false
	}
	for _, plugin := range plugins {
		if matchesAnyPrefix(filepath.Base(plugin), def.ExtensionPatterns) {
			return true
		}
	}
	return false
}

func (d *Detector) jetBrainsConfigDir() string {
	switch d.goos {
	case "windows":
		return filepath.Join(d.homeDir, "AppData", "Roaming", "JetBrains")
	case "darwin":
		return filepath.Join(d.homeDir, "Library", "Application Support", "JetBrains")
	default:
		return filepath.Join(d.homeDir, ".config", "JetBrains")
	}
}

func (d *Detector) expandHome(p string) string {
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		return filepath.Join(d.homeDir, filepath.FromSlash(rest))
	}
	return filepath.FromSlash(p)
}

func matchesAnyPrefix(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range patterns {
		if strings.HasPrefix(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// GetToolSkillPath 返回工具的技能目录
func (d *Detector) GetToolSkillPath(toolID string) (string, error) {
	def, ok := Lookup(d.definitions, toolID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotSupported, toolID)
	}
	return filepath.Join(d.homeDir, filepath.FromSlash(def.SkillPath)), nil
}

// EnsureToolSkillPath 返回工具的技能目录，不存在时创建
func (d *Detector) EnsureToolSkillPath(toolID string) (string, error) {
	skillPath, err := d.GetToolSkillPath(toolID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(skillPath, 0755); err != nil {
		return "", err
	}
	return skillPath, nil
}
