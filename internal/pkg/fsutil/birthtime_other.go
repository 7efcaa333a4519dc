//go:build !linux

package fsutil

import (
	"io/fs"
	"time"
)

// BirthTime 返回文件创建时间，此平台退回修改时间
func BirthTime(path string, info fs.FileInfo) time.Time {
	return info.ModTime()
}
