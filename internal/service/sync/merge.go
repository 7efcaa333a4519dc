package syncservice

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/weibaohui/skillsync/backend/internal/pkg/fsutil"
	"k8s.io/klog/v2"
)

// PreviewMerge 对工具目录下的每个技能，逐文件与规范副本比较指纹。
// 规范副本中已存在且指纹不同的文件记为冲突，冲突一律需要调用方决定
func (s *Service) PreviewMerge(toolID string) ([]MergePreview, error) {
	toolSkillPath, err := s.detector.GetToolSkillPath(toolID)
	if err != nil {
		return nil, err
	}

	previews := make([]MergePreview, 0)
	entries, err := os.ReadDir(toolSkillPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return previews, nil
		}
		return nil, err
	}

	for _, entry := range entries {
		sourcePath, _, ok := resolveSkillDir(filepath.Join(toolSkillPath, entry.Name()), entry)
		if !ok {
			continue
		}
		targetPath, err := s.store.SkillPath(entry.Name())
		if err != nil {
			klog.Warningf("[sync.PreviewMerge] 跳过无效技能名: tool=%s, name=%s, error=%v", toolID, entry.Name(), err)
			continue
		}

		files, err := analyzeMergeFiles(sourcePath, targetPath)
		if err != nil {
			klog.Warningf("[sync.PreviewMerge] 分析技能失败: tool=%s, name=%s, error=%v", toolID, entry.Name(), err)
			continue
		}

		conflicts := make([]ConflictInfo, 0)
		for _, f := range files {
			if f.Action == MergeActionOverwrite && f.TargetHash != "" && f.SourceHash != f.TargetHash {
				conflicts = append(conflicts, ConflictInfo{
					FileName:       f.Name,
					Path:           f.Path,
					SourceHash:     f.SourceHash,
					TargetHash:     f.TargetHash,
					AutoResolvable: false,
				})
			}
		}

		previews = append(previews, MergePreview{
			SkillName:    entry.Name(),
			SourceTool:   toolID,
			TargetPath:   targetPath,
			Files:        files,
			Conflicts:    conflicts,
			HasConflicts: len(conflicts) > 0,
		})
	}
	return previews, nil
}

func analyzeMergeFiles(sourceDir, targetDir string) ([]MergeFile, error) {
	files := make([]MergeFile, 0)
	for entry, err := range fsutil.Walk(sourceDir) {
		if err != nil {
			return nil, err
		}
		targetFile := filepath.Join(targetDir, filepath.FromSlash(entry.RelPath))
		file := MergeFile{
			Name:       entry.Name,
			Path:       entry.RelPath,
			SourcePath: entry.AbsPath,
			TargetPath: targetFile,
			Action:     MergeActionCreate,
			SourceHash: entry.Hash(),
		}
		if fsutil.Exists(targetFile) {
			file.Exists = true
			file.Action = MergeActionOverwrite
			if hash, err := fsutil.HashFile(targetFile); err == nil {
				file.TargetHash = hash
			}
		}
		files = append(files, file)
	}
	return files, nil
}

// ExecuteMerge 合并即导入：与 ImportFromTool(toolID, skillName, overwrite) 完全等价
func (s *Service) ExecuteMerge(ctx context.Context, toolID, skillName string, overwrite bool) ImportResult {
	return s.ImportFromTool(ctx, toolID, skillName, ImportOptions{Overwrite: overwrite})
}
