package syncservice

import "errors"

var (
	// ErrNotSymlink 工具侧条目不是符号链接
	ErrNotSymlink = errors.New("not a symlink")

	// ErrLinkTargetMissing 链接目标不存在
	ErrLinkTargetMissing = errors.New("link target does not exist")

	// ErrLinkTargetNotDir 链接目标不是目录
	ErrLinkTargetNotDir = errors.New("link target is not a directory")

	// ErrSamePath 源与目标指向同一目录
	ErrSamePath = errors.New("source and target are the same directory")
)
