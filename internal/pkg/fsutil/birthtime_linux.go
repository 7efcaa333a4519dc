//go:build linux

package fsutil

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// BirthTime 返回文件创建时间，文件系统不支持时退回修改时间
func BirthTime(path string, info fs.FileInfo) time.Time {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 {
		return info.ModTime()
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
}
