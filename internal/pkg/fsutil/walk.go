package fsutil

import (
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"

	"k8s.io/klog/v2"
)

// Entry 遍历得到的单个文件
type Entry struct {
	Name    string // 文件名
	RelPath string // 相对根目录的路径，使用 / 分隔
	AbsPath string // 绝对路径
	Size    int64
	Content []byte
}

// Hash 返回内容指纹
func (e Entry) Hash() string {
	return HashBytes(e.Content)
}

// Walk 递归遍历 root 下的普通文件，按目录项名称顺序产出。
// 返回的序列是惰性的，可重复迭代，每次迭代都重新读取文件系统。
// 某个目录或文件读取失败时产出 (Entry{}, err) 并继续遍历其余部分。
// 符号链接按其指向的内容遍历，与 CopyDir 的拷贝结果一致：
// 悬空链接与指向祖先目录的链接被跳过。
func Walk(root string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		info, err := os.Stat(root)
		if err != nil {
			yield(Entry{}, err)
			return
		}
		walkDir(root, "", []os.FileInfo{info}, yield)
	}
}

func walkDir(dir, rel string, ancestors []os.FileInfo, yield func(Entry, error) bool) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return yield(Entry{}, err)
	}

	for _, entry := range entries {
		fullPath := filepath.Join(dir, entry.Name())
		relPath := entry.Name()
		if rel != "" {
			relPath = path.Join(rel, entry.Name())
		}

		info, ok := followEntry(fullPath, entry)
		if !ok {
			continue
		}

		switch {
		case info.IsDir():
			if isAncestor(ancestors, info) {
				klog.Warningf("[fsutil.Walk] 跳过循环链接: path=%s", fullPath)
				continue
			}
			if !walkDir(fullPath, relPath, append(ancestors, info), yield) {
				return false
			}
		case info.Mode().IsRegular():
			content, err := os.ReadFile(fullPath)
			if err != nil {
				if !yield(Entry{}, err) {
					return false
				}
				continue
			}
			if !yield(Entry{
				Name:    entry.Name(),
				RelPath: relPath,
				AbsPath: fullPath,
				Size:    int64(len(content)),
				Content: content,
			}, nil) {
				return false
			}
		}
	}
	return true
}

// followEntry 返回目录项（跟随符号链接后）的信息，悬空链接返回 false
func followEntry(fullPath string, entry fs.DirEntry) (os.FileInfo, bool) {
	if entry.Type()&os.ModeSymlink == 0 {
		info, err := entry.Info()
		return info, err == nil
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, false
	}
	return info, true
}

// isAncestor 判断目录是否已出现在当前遍历路径上
func isAncestor(ancestors []os.FileInfo, info os.FileInfo) bool {
	for _, a := range ancestors {
		if os.SameFile(a, info) {
			return true
		}
	}
	return false
}

// Stats 汇总目录下的文件数与总字节数，跳过读取失败的项
func Stats(root string) (fileCount int, size int64) {
	for entry, err := range Walk(root) {
		if err != nil {
			continue
		}
		fileCount++
		size += entry.Size
	}
	return fileCount, size
}

// HashSet 返回 相对路径 -> 指纹 的映射
func HashSet(root string) (map[string]string, error) {
	hashes := make(map[string]string)
	for entry, err := range Walk(root) {
		if err != nil {
			return nil, err
		}
		hashes[entry.RelPath] = entry.Hash()
	}
	return hashes, nil
}
