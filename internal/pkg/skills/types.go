package skills

import (
	"time"
)

// Skill 规范仓库中的技能，ID 即目录名
type Skill struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Tags        []string    `json:"tags"`
	Files       []SkillFile `json:"files"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Version     int         `json:"version"`
	SourceTool  string      `json:"sourceTool,omitempty"`
}

// SkillFile 技能内的单个文件
type SkillFile struct {
	Name    string `json:"name"`
	Path    string `json:"path"` // 相对技能目录，/ 分隔，跨工具的文件身份键
	Size    int64  `json:"size"`
	Hash    string `json:"hash"`
	Content string `json:"content,omitempty"`
}

// Metadata 从标记文件中提取的元数据
type Metadata struct {
	Description string
	Category    string
	Tags        []string
	SourceTool  string
}

const (
	// MarkerFile 约定的标记文件名
	MarkerFile = "SKILL.md"

	// DefaultCategory 缺省分类
	DefaultCategory = "general"

	// DefaultDescription 新建技能时的缺省描述
	DefaultDescription = "A new skill for AI coding assistants."

	// InitialVersion 技能版本号，当前没有任何写路径会递增它
	InitialVersion = 1
)
