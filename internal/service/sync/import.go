package syncservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/weibaohui/skillsync/backend/internal/eventbus"
	"github.com/weibaohui/skillsync/backend/internal/pkg/fsutil"
	"github.com/weibaohui/skillsync/backend/internal/pkg/skills"
	"k8s.io/klog/v2"
)

// ListToolsSkills 扫描所有已安装工具的技能目录。
// 单个工具扫描失败只记录日志，不影响其他工具
func (s *Service) ListToolsSkills() []ImportedSkill {
	result := make([]ImportedSkill, 0)
	for _, tool := range s.detector.DetectAll() {
		if !tool.Installed {
			continue
		}
		toolSkillPath, err := s.detector.GetToolSkillPath(tool.ID)
		if err != nil {
			continue
		}
		entries, err := os.ReadDir(toolSkillPath)
		if err != nil {
			klog.Warningf("[sync.ListToolsSkills] 扫描工具目录失败: tool=%s, path=%s, error=%v", tool.ID, toolSkillPath, err)
			continue
		}

		for _, entry := range entries {
			entryPath := filepath.Join(toolSkillPath, entry.Name())
			skillPath, isSymlink, ok := resolveSkillDir(entryPath, entry)
			if !ok {
				continue
			}

			fileCount, size := fsutil.Stats(skillPath)
			imported := ImportedSkill{
				Name:      entry.Name(),
				ToolID:    tool.ID,
				ToolName:  tool.DisplayName,
				SkillPath: skillPath,
				FileCount: fileCount,
				Size:      size,
				IsSymlink: isSymlink,
			}
			if content, err := os.ReadFile(filepath.Join(skillPath, skills.MarkerFile)); err == nil {
				imported.Description = skills.ParseMetadata(string(content)).Description
			}
			result = append(result, imported)
		}
	}
	return result
}

// resolveSkillDir 对目录直接返回；对符号链接解析一层并要求目标为目录
func resolveSkillDir(entryPath string, entry fs.DirEntry) (string, bool, bool) {
	if entry.IsDir() {
		return entryPath, false, true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return "", false, false
	}
	resolved, err := fsutil.ResolveLink(entryPath)
	if err != nil {
		klog.Warningf("[sync.resolveSkillDir] 解析链接失败: path=%s, error=%v", entryPath, err)
		return "", true, false
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		klog.Warningf("[sync.resolveSkillDir] 链接目标不可用: path=%s, target=%s", entryPath, resolved)
		return "", true, false
	}
	return resolved, true, true
}

// ImportFromTool 将工具目录中的技能导入规范仓库。
// 规范仓库中始终落地真实副本；已存在同名技能时必须显式允许覆盖
func (s *Service) ImportFromTool(ctx context.Context, toolID, skillName string, opts ImportOptions) ImportResult {
	result := s.importFromTool(toolID, skillName, opts)
	if result.Success {
		klog.V(6).Infof("技能已导入: tool=%s, skill=%s, overwrite=%t, symlink=%t, imported=%t", toolID, skillName, opts.Overwrite, opts.UseSymlink, result.Imported)
	} else {
		klog.Errorf("[sync.ImportFromTool] 导入失败: tool=%s, skill=%s, error=%s", toolID, skillName, result.Error)
	}
	method := MethodCopy
	if opts.UseSymlink && result.Success {
		method = MethodSymlink
	}
	s.publish(ctx, eventbus.SyncEventSkillImported, toolID, skillName, string(method), result.Success, result.Error)
	return result
}

func (s *Service) importFromTool(toolID, skillName string, opts ImportOptions) ImportResult {
	fail := func(format string, args ...any) ImportResult {
		return ImportResult{SkillName: skillName, Success: false, Error: fmt.Sprintf(format, args...)}
	}

	if err := skills.ValidateName(skillName); err != nil {
		return fail("%v", err)
	}
	toolSkillPath, err := s.detector.GetToolSkillPath(toolID)
	if err != nil {
		return fail("Tool %q not supported", toolID)
	}

	sourcePath := filepath.Join(toolSkillPath, skillName)
	sourceInfo, err := os.Lstat(sourcePath)
	if err != nil {
		return fail("Skill %q not found in tool directory", skillName)
	}
	sourceIsLink := sourceInfo.Mode()&os.ModeSymlink != 0

	targetPath, err := s.store.SkillPath(skillName)
	if err != nil {
		return fail("%v", err)
	}

	contentPath := sourcePath
	if sourceIsLink {
		if contentPath, err = fsutil.ResolveLink(sourcePath); err != nil {
			return fail("%v", err)
		}
	}
	info, err := os.Stat(contentPath)
	if err != nil {
		return fail("%v", err)
	}
	if !info.IsDir() {
		return fail("Skill %q in tool directory is not a directory", skillName)
	}

	if fsutil.Exists(targetPath) && !opts.Overwrite {
		return fail("Skill %q already exists. Use overwrite=true to replace.", skillName)
	}
	// 工具侧已经链接到规范副本：覆盖等于先删除源本身，视为无需导入
	if sameDirectory(contentPath, targetPath) {
		return ImportResult{SkillName: skillName, Success: true, Imported: false}
	}

	if err := replaceWithCopy(contentPath, targetPath); err != nil {
		return fail("%v", err)
	}

	if opts.UseSymlink {
		if err := linkToolEntry(sourcePath, targetPath, sourceIsLink); err != nil {
			return fail("imported, but failed to replace tool directory with symlink: %v", err)
		}
	}

	return ImportResult{SkillName: skillName, Success: true, Imported: true}
}

// replaceWithCopy 先拷贝到同级临时目录，再替换目标，拷贝失败时目标保持原样
func replaceWithCopy(src, dst string) error {
	if err := fsutil.EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	staging := dst + ".skillsync-staging-" + uuid.New().String()
	if err := fsutil.CopyDir(src, staging); err != nil {
		os.RemoveAll(staging)
		return err
	}
	if err := fsutil.RemoveEntry(dst); err != nil {
		os.RemoveAll(staging)
		return err
	}
	if err := os.Rename(staging, dst); err != nil {
		os.RemoveAll(staging)
		return err
	}
	return nil
}

// linkToolEntry 将工具侧条目替换为指向规范副本的符号链接。
// 原条目是目录时先改名备份，创建链接失败则改回，保证工具侧始终有原目录或链接之一
func linkToolEntry(toolEntry, canonical string, isLink bool) error {
	if isLink {
		previous, _ := os.Readlink(toolEntry)
		if err := os.Remove(toolEntry); err != nil {
			return err
		}
		if err := os.Symlink(canonical, toolEntry); err != nil {
			if previous != "" {
				if restoreErr := os.Symlink(previous, toolEntry); restoreErr != nil {
					klog.Errorf("[sync.linkToolEntry] 恢复原链接失败: path=%s, error=%v", toolEntry, restoreErr)
				}
			}
			return err
		}
		return nil
	}

	backup := toolEntry + ".skillsync-backup-" + uuid.New().String()
	if err := os.Rename(toolEntry, backup); err != nil {
		return err
	}
	if err := os.Symlink(canonical, toolEntry); err != nil {
		if restoreErr := os.Rename(backup, toolEntry); restoreErr != nil {
			klog.Errorf("[sync.linkToolEntry] 恢复原目录失败: path=%s, backup=%s, error=%v", toolEntry, backup, restoreErr)
		}
		return err
	}
	if err := os.RemoveAll(backup); err != nil {
		klog.Warningf("[sync.linkToolEntry] 清理备份目录失败: backup=%s, error=%v", backup, err)
	}
	return nil
}

// RestoreFromSymlink 将工具侧的符号链接还原为独立的真实目录
func (s *Service) RestoreFromSymlink(ctx context.Context, toolID, skillName string) RestoreResult {
	result := s.restoreFromSymlink(toolID, skillName)
	if result.Success {
		klog.V(6).Infof("链接已还原为目录: tool=%s, skill=%s", toolID, skillName)
	} else {
		klog.Errorf("[sync.RestoreFromSymlink] 还原失败: tool=%s, skill=%s, error=%s", toolID, skillName, result.Error)
	}
	s.publish(ctx, eventbus.SyncEventSkillRestored, toolID, skillName, string(MethodCopy), result.Success, result.Error)
	return result
}

func (s *Service) restoreFromSymlink(toolID, skillName string) RestoreResult {
	fail := func(format string, args ...any) RestoreResult {
		return RestoreResult{Success: false, Error: fmt.Sprintf(format, args...)}
	}

	if err := skills.ValidateName(skillName); err != nil {
		return fail("%v", err)
	}
	toolSkillPath, err := s.detector.GetToolSkillPath(toolID)
	if err != nil {
		return fail("Tool %q not supported", toolID)
	}

	linkPath := filepath.Join(toolSkillPath, skillName)
	info, err := os.Lstat(linkPath)
	if err != nil {
		return fail("Skill %q not found in tool directory", skillName)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return fail("%v: %s", ErrNotSymlink, linkPath)
	}

	target, err := fsutil.ResolveLink(linkPath)
	if err != nil {
		return fail("%v", err)
	}
	targetInfo, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail("%v: %s", ErrLinkTargetMissing, target)
		}
		return fail("%v", err)
	}
	if !targetInfo.IsDir() {
		return fail("%v: %s", ErrLinkTargetNotDir, target)
	}

	if err := replaceWithCopy(target, linkPath); err != nil {
		return fail("%v", err)
	}

	restored, err := os.Lstat(linkPath)
	if err != nil || restored.Mode()&os.ModeSymlink != 0 || !restored.IsDir() {
		return fail("restore verification failed: %s is not a directory", linkPath)
	}
	return RestoreResult{Success: true}
}

// ImportAllFromTool 导入工具目录下的全部技能，不做链接转换
func (s *Service) ImportAllFromTool(ctx context.Context, toolID string, overwrite bool) BatchImportResult {
	toolSkillPath, err := s.detector.GetToolSkillPath(toolID)
	if err != nil {
		return BatchImportResult{Success: false, Results: []ImportResult{}, Error: fmt.Sprintf("Tool %q not supported", toolID)}
	}

	batch := BatchImportResult{Results: make([]ImportResult, 0)}
	entries, err := os.ReadDir(toolSkillPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		batch.Error = err.Error()
		return batch
	}

	for _, entry := range entries {
		if _, _, ok := resolveSkillDir(filepath.Join(toolSkillPath, entry.Name()), entry); !ok {
			continue
		}
		result := s.ImportFromTool(ctx, toolID, entry.Name(), ImportOptions{Overwrite: overwrite})
		if result.Success {
			batch.Imported++
		} else {
			batch.Failed++
		}
		batch.Results = append(batch.Results, result)
	}

	batch.Success = batch.Failed == 0
	klog.V(6).Infof("批量导入完成: tool=%s, imported=%d, failed=%d", toolID, batch.Imported, batch.Failed)
	return batch
}
