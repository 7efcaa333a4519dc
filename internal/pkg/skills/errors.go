package skills

import "errors"

// 预定义错误
var (
	// ErrSkillNotFound Skill 不存在
	ErrSkillNotFound = errors.New("skill not found")

	// ErrSkillAlreadyExists Skill 已存在
	ErrSkillAlreadyExists = errors.New("skill already exists")

	// ErrInvalidName name 格式错误
	ErrInvalidName = errors.New("invalid skill name")

	// ErrFileNotFound 技能内文件不存在
	ErrFileNotFound = errors.New("file not found")

	// ErrPathEscapesSkill 相对路径越出技能目录
	ErrPathEscapesSkill = errors.New("path escapes skill directory")
)
