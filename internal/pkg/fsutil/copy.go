package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"
)

// EnsureDir 确保目录存在
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(dir, 0755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Exists 判断路径是否存在（不跟随符号链接）
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsSymlink 判断路径是否为符号链接
func IsSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// RemoveEntry 删除路径：符号链接只解除链接，目录递归删除。路径不存在时返回 nil
func RemoveEntry(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return os.Remove(path)
	}
	return os.RemoveAll(path)
}

// ResolveLink 解析一层符号链接，相对目标以链接所在目录为基准
func ResolveLink(link string) (string, error) {
	target, err := os.Readlink(link)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(link), target)
	}
	return filepath.Clean(target), nil
}

// CopyDir 深拷贝目录。目录内的符号链接按其指向的内容拷贝；
// 悬空链接与指向祖先目录的链接被跳过
func CopyDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return copyDir(src, dst, []os.FileInfo{info})
}

func copyDir(src, dst string, ancestors []os.FileInfo) error {
	if err := EnsureDir(dst); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		info, err := os.Stat(srcPath)
		if err != nil {
			if entry.Type()&os.ModeSymlink != 0 {
				klog.Warningf("[fsutil.CopyDir] 跳过悬空链接: path=%s, error=%v", srcPath, err)
				continue
			}
			return err
		}

		if info.IsDir() {
			if isAncestor(ancestors, info) {
				klog.Warningf("[fsutil.CopyDir] 跳过循环链接: path=%s", srcPath)
				continue
			}
			if err := copyDir(srcPath, dstPath, append(ancestors, info)); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if err := CopyFile(srcPath, dstPath, info.Mode().Perm()); err != nil {
			return err
		}
	}
	return nil
}

// CopyFile 拷贝单个文件
func CopyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
