package syncservice

import "time"

// Method 同步方式
type Method string

const (
	MethodSymlink Method = "symlink"
	MethodCopy    Method = "copy"
)

// SyncResult 单个 (技能, 工具) 同步结果
type SyncResult struct {
	ToolID  string `json:"toolId"`
	SkillID string `json:"skillId"`
	Success bool   `json:"success"`
	Method  Method `json:"method"`
	Error   string `json:"error,omitempty"`
}

// StatusType 同步状态
type StatusType string

const (
	StatusSynced   StatusType = "synced"
	StatusPending  StatusType = "pending"
	StatusConflict StatusType = "conflict"
	StatusError    StatusType = "error"
)

// SyncStatus 工具侧技能的同步状态，只读视图
type SyncStatus struct {
	ToolID   string     `json:"toolId"`
	SkillID  string     `json:"skillId"`
	SyncedAt *time.Time `json:"syncedAt,omitempty"`
	Status   StatusType `json:"status"`
	Method   Method     `json:"method"`
	Error    string     `json:"error,omitempty"`
}

// MergeAction 合并时对单个文件的动作
type MergeAction string

const (
	MergeActionCreate    MergeAction = "create"
	// 预览只产生 create 与 overwrite，skip 保留给客户端使用
	MergeActionSkip      MergeAction = "skip"
	MergeActionOverwrite MergeAction = "overwrite"
)

// MergeFile 合并预览中的单个文件
type MergeFile struct {
	Name       string      `json:"name"`
	Path       string      `json:"path"`
	SourcePath string      `json:"sourcePath"`
	TargetPath string      `json:"targetPath"`
	Action     MergeAction `json:"action"`
	Exists     bool        `json:"exists"`
	SourceHash string      `json:"sourceHash"`
	TargetHash string      `json:"targetHash,omitempty"`
}

// ConflictInfo 内容不一致的待覆盖文件
type ConflictInfo struct {
	FileName       string `json:"fileName"`
	Path           string `json:"path"`
	SourceHash     string `json:"sourceHash"`
	TargetHash     string `json:"targetHash"`
	AutoResolvable bool   `json:"autoResolvable"`
}

// MergePreview 将工具侧技能合并进规范仓库前的预览
type MergePreview struct {
	SkillName    string         `json:"skillName"`
	SourceTool   string         `json:"sourceTool"`
	TargetPath   string         `json:"targetPath"`
	Files        []MergeFile    `json:"files"`
	Conflicts    []ConflictInfo `json:"conflicts"`
	HasConflicts bool           `json:"hasConflicts"`
}

// ImportedSkill 在工具目录中发现的技能
type ImportedSkill struct {
	Name        string `json:"name"`
	ToolID      string `json:"toolId"`
	ToolName    string `json:"toolName"`
	SkillPath   string `json:"skillPath"` // 符号链接已解析一层
	FileCount   int    `json:"fileCount"`
	Size        int64  `json:"size"`
	Description string `json:"description,omitempty"`
	IsSymlink   bool   `json:"isSymlink"`
}

// ImportOptions 导入选项
type ImportOptions struct {
	Overwrite  bool // 允许覆盖规范仓库中的同名技能
	UseSymlink bool // 导入后将工具侧原目录替换为指向规范副本的链接
}

// ImportResult 单个技能导入结果
type ImportResult struct {
	SkillName string `json:"skillName"`
	Success   bool   `json:"success"`
	Imported  bool   `json:"imported"`
	Error     string `json:"error,omitempty"`
}

// RestoreResult 链接还原结果
type RestoreResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchImportResult 批量导入结果
type BatchImportResult struct {
	Success  bool           `json:"success"`
	Imported int            `json:"imported"`
	Failed   int            `json:"failed"`
	Results  []ImportResult `json:"results"`
	Error    string         `json:"error,omitempty"`
}
