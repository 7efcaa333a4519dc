package skills

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/weibaohui/skillsync/backend/internal/pkg/fsutil"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"k8s.io/klog/v2"
)

// RepoPathProvider 提供规范仓库根目录
type RepoPathProvider interface {
	// EnsureSkillRepo 返回当前仓库路径，不存在时创建
	EnsureSkillRepo() (string, error)
}

// StaticRoot 固定路径的 RepoPathProvider
type StaticRoot string

// EnsureSkillRepo 实现 RepoPathProvider
func (r StaticRoot) EnsureSkillRepo() (string, error) {
	if err := os.MkdirAll(string(r), 0755); err != nil {
		return "", err
	}
	return string(r), nil
}

// Store 规范技能仓库，每个技能对应根目录下的一个子目录
type Store struct {
	paths RepoPathProvider
}

// NewStore 创建 Store
func NewStore(paths RepoPathProvider) *Store {
	return &Store{paths: paths}
}

// Root 返回仓库根目录（确保存在）
func (s *Store) Root() (string, error) {
	return s.paths.EnsureSkillRepo()
}

// SkillPath 返回技能目录路径，不检查是否存在
func (s *Store) SkillPath(id string) (string, error) {
	if err := ValidateName(id); err != nil {
		return "", err
	}
	root, err := s.Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, id), nil
}

// List 列出所有技能，按名称做区域感知排序。
// 非目录项和解析失败的技能被跳过并记录日志
func (s *Store) List() ([]*Skill, error) {
	root, err := s.Root()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read skill repository: %w", err)
	}

	result := make([]*Skill, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skill, err := loadSkill(filepath.Join(root, entry.Name()))
		if err != nil {
			klog.Warningf("[skills.List] 跳过无法加载的技能: name=%s, error=%v", entry.Name(), err)
			continue
		}
		result = append(result, skill)
	}

	col := collate.New(language.Und)
	sort.SliceStable(result, func(i, j int) bool {
		return col.CompareString(result[i].Name, result[j].Name) < 0
	})
	return result, nil
}

// Get 获取技能
func (s *Store) Get(id string) (*Skill, error) {
	skillPath, err := s.SkillPath(id)
	if err != nil {
		if errors.Is(err, ErrInvalidName) {
			return nil, fmt.Errorf("%w: %s", ErrSkillNotFound, id)
		}
		return nil, err
	}
	return loadSkill(skillPath)
}

// Exists 判断技能目录是否存在
func (s *Store) Exists(id string) bool {
	skillPath, err := s.SkillPath(id)
	if err != nil {
		return false
	}
	return fsutil.Exists(skillPath)
}

// Create 新建技能并写入标记文件，同名目录已存在时失败
func (s *Store) Create(name, description, sourceTool string) (*Skill, error) {
	skillPath, err := s.SkillPath(name)
	if err != nil {
		return nil, err
	}

	if err := os.Mkdir(skillPath, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: Skill %q already exists", ErrSkillAlreadyExists, name)
		}
		return nil, err
	}

	marker := renderMarker(name, description, sourceTool)
	if err := os.WriteFile(filepath.Join(skillPath, MarkerFile), []byte(marker), 0644); err != nil {
		return nil, err
	}

	klog.V(6).Infof("技能已创建: name=%s, source=%s", name, sourceTool)
	return loadSkill(skillPath)
}

// Delete 递归删除技能目录，不可恢复。技能不存在时返回 false
func (s *Store) Delete(id string) (bool, error) {
	skillPath, err := s.SkillPath(id)
	if err != nil {
		return false, nil
	}
	if !fsutil.Exists(skillPath) {
		return false, nil
	}
	if err := fsutil.RemoveEntry(skillPath); err != nil {
		return false, err
	}
	klog.V(6).Infof("技能已删除: name=%s", id)
	return true, nil
}

// GetFileContent 读取技能内文件
func (s *Store) GetFileContent(id, relPath string) (string, error) {
	fullPath, err := s.filePath(id, relPath)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s/%s", ErrFileNotFound, id, relPath)
		}
		return "", err
	}
	return string(content), nil
}

// UpdateFile 写入技能内文件，按需创建中间目录，无条件覆盖
func (s *Store) UpdateFile(id, relPath, content string) error {
	fullPath, err := s.filePath(id, relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(content), 0644)
}

// DeleteFile 删除技能内文件，文件不存在时返回 false
func (s *Store) DeleteFile(id, relPath string) (bool, error) {
	fullPath, err := s.filePath(id, relPath)
	if err != nil {
		return false, err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// filePath 解析技能内相对路径，拒绝越出技能目录的路径
func (s *Store) filePath(id, relPath string) (string, error) {
	skillPath, err := s.SkillPath(id)
	if err != nil {
		return "", err
	}
	local := filepath.FromSlash(strings.TrimPrefix(relPath, "/"))
	if local == "" || filepath.Clean(local) == "." || !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesSkill, relPath)
	}
	return filepath.Join(skillPath, local), nil
}

// ValidateName 校验技能名：非空，不能包含路径分隔符，不能是 . 或 ..
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// loadSkill 从目录加载技能
func loadSkill(skillPath string) (*Skill, error) {
	info, err := os.Stat(skillPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSkillNotFound, filepath.Base(skillPath))
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSkillNotFound, filepath.Base(skillPath))
	}

	id := filepath.Base(skillPath)
	meta := Metadata{Category: DefaultCategory, Tags: []string{}}
	if content, err := os.ReadFile(filepath.Join(skillPath, MarkerFile)); err == nil {
		meta = ParseMetadata(string(content))
	}

	return &Skill{
		ID:          id,
		Name:        id,
		Description: meta.Description,
		Category:    meta.Category,
		Tags:        meta.Tags,
		Files:       LoadFiles(skillPath),
		CreatedAt:   fsutil.BirthTime(skillPath, info),
		UpdatedAt:   info.ModTime(),
		Version:     InitialVersion,
		SourceTool:  meta.SourceTool,
	}, nil
}

// LoadFiles 递归扫描目录下的文件，读取失败的项被跳过
func LoadFiles(dir string) []SkillFile {
	files := make([]SkillFile, 0)
	for entry, err := range fsutil.Walk(dir) {
		if err != nil {
			klog.Warningf("[skills.LoadFiles] 扫描失败: dir=%s, error=%v", dir, err)
			continue
		}
		files = append(files, SkillFile{
			Name: entry.Name,
			Path: entry.RelPath,
			Size: entry.Size,
			Hash: entry.Hash(),
		})
	}
	return files
}
