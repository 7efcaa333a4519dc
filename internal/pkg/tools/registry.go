package tools

// Category 工具类别
type Category string

const (
	CategoryCLI             Category = "cli"
	CategoryIDE             Category = "ide"
	CategoryVSCodeExtension Category = "vscode-extension"
	CategoryJetBrainsPlugin Category = "jetbrains-plugin"
)

// Definition 工具静态定义，进程生命周期内不可变
type Definition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Category    Category `json:"category"`
	SkillPath   string   `json:"skillPath"` // 相对用户主目录
	ConfigPath  string   `json:"configPath,omitempty"`
	Icon        string   `json:"icon,omitempty"`

	// 探测线索
	Commands          []string `json:"-"` // cli: 可执行文件别名
	InstallPaths      []string `json:"-"` // ide: 安装目录，~/ 开头表示主目录
	ExtensionPatterns []string `json:"-"` // 扩展/插件: 目录名前缀（不区分大小写）
}

// Tool 工具运行时状态，每次查询重新计算
type Tool struct {
	Definition
	Detected  bool `json:"detected"`
	Installed bool `json:"installed"`
}

var definitions = []Definition{
	{
		ID:          "claude-code",
		Name:        "claude-code",
		DisplayName: "Claude Code",
		Category:    CategoryCLI,
		SkillPath:   ".claude/skills",
		Icon:        "claude",
		Commands:    []string{"claude", "claude-code"},
	},
	{
		ID:          "cursor",
		Name:        "cursor",
		DisplayName: "Cursor",
		Category:    CategoryIDE,
		SkillPath:   ".cursor/skills",
		Icon:        "cursor",
		InstallPaths: []string{
			"~/AppData/Local/Programs/cursor",
			"~/.cursor",
			"/Applications/Cursor.app",
			"/usr/local/bin/cursor",
		},
	},
	{
		ID:          "windsurf",
		Name:        "windsurf",
		DisplayName: "Windsurf",
		Category:    CategoryIDE,
		SkillPath:   ".windsurf/skills",
		Icon:        "windsurf",
		InstallPaths: []string{
			"~/AppData/Local/Programs/windsurf",
			"~/.windsurf",
			"/Applications/Windsurf.app",
		},
	},
	{
		ID:           "trae",
		Name:         "trae",
		DisplayName:  "Trae",
		Category:     CategoryIDE,
		SkillPath:    ".trae/skills",
		Icon:         "trae",
		InstallPaths: []string{"~/AppData/Local/Programs/trae", "~/.trae"},
	},
	{
		ID:           "kiro",
		Name:         "kiro",
		DisplayName:  "Kiro",
		Category:     CategoryIDE,
		SkillPath:    ".kiro/skills",
		Icon:         "kiro",
		InstallPaths: []string{"~/AppData/Local/Programs/kiro", "~/.kiro"},
	},
	{
		ID:          "gemini-cli",
		Name:        "gemini-cli",
		DisplayName: "Gemini CLI",
		Category:    CategoryCLI,
		SkillPath:   ".gemini/skills",
		Icon:        "gemini",
		Commands:    []string{"gemini", "gemini-cli"},
	},
	{
		ID:                "copilot",
		Name:              "copilot",
		DisplayName:       "GitHub Copilot",
		Category:          CategoryVSCodeExtension,
		SkillPath:         ".github/copilot/skills",
		ConfigPath:        ".vscode/settings.json",
		Icon:              "github",
		ExtensionPatterns: []string{"github.copilot"},
	},
	{
		ID:          "codex",
		Name:        "codex",
		DisplayName: "OpenAI Codex",
		Category:    CategoryCLI,
		SkillPath:   ".codex/skills",
		Icon:        "openai",
		Commands:    []string{"codex"},
	},
	{
		ID:          "aider",
		Name:        "aider",
		DisplayName: "Aider",
		Category:    CategoryCLI,
		SkillPath:   ".aider/skills",
		Icon:        "aider",
		Commands:    []string{"aider", "aider-chat"},
	},
	{
		ID:                "continue",
		Name:              "continue",
		DisplayName:       "Continue",
		Category:          CategoryVSCodeExtension,
		SkillPath:         ".continue/skills",
		Icon:              "continue",
		ExtensionPatterns: []string{"continue.continue"},
	},
	{
		ID:                "cline",
		Name:              "cline",
		DisplayName:       "Cline",
		Category:          CategoryVSCodeExtension,
		SkillPath:         ".cline/skills",
		Icon:              "cline",
		ExtensionPatterns: []string{"saoudrizwan.claude-dev"},
	},
	{
		ID:                "roo-code",
		Name:              "roo-code",
		DisplayName:       "Roo Code",
		Category:          CategoryVSCodeExtension,
		SkillPath:         ".roo/skills",
		Icon:              "roo",
		ExtensionPatterns: []string{"rooveterinaryinc.roo-cline"},
	},
	{
		ID:                "amazon-q",
		Name:              "amazon-q",
		DisplayName:       "Amazon Q",
		Category:          CategoryVSCodeExtension,
		SkillPath:         ".amazonq/skills",
		Icon:              "amazon",
		ExtensionPatterns: []string{"amazonwebservices.amazon-q-vscode"},
	},
	{
		ID:                "jetbrains-ai",
		Name:              "jetbrains-ai",
		DisplayName:       "JetBrains AI",
		Category:          CategoryJetBrainsPlugin,
		SkillPath:         ".jetbrains/ai/skills",
		Icon:              "jetbrains",
		ExtensionPatterns: []string{"ml-llm", "jetbrains-ai"},
	},
}

// Definitions 返回内置工具目录的副本，顺序稳定
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup 按 ID 查找工具定义
func Lookup(defs []Definition, id string) (Definition, bool) {
	for _, def := range defs {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}
