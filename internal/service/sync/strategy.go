package syncservice

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// linkStrategy 进程级同步方式，首次使用时探测一次，此后不再重新探测
type linkStrategy struct {
	once     sync.Once
	method   Method
	probeDir string
}

func newLinkStrategy(probeDir string) *linkStrategy {
	return &linkStrategy{probeDir: probeDir}
}

// Method 返回同步方式：能创建符号链接则为 symlink，否则为 copy
func (s *linkStrategy) Method() Method {
	s.once.Do(func() {
		if canCreateSymlink(s.probeDir) {
			s.method = MethodSymlink
		} else {
			s.method = MethodCopy
		}
		klog.V(6).Infof("同步方式已确定: method=%s", s.method)
	})
	return s.method
}

// force 跳过探测直接指定同步方式，仅在首次使用前生效
func (s *linkStrategy) force(method Method) {
	s.once.Do(func() {
		s.method = method
	})
}

// canCreateSymlink 创建并删除一个临时链接
func canCreateSymlink(dir string) bool {
	if dir == "" {
		dir = os.TempDir()
	}
	id := uuid.New().String()
	target := filepath.Join(dir, "skillsync-probe-target-"+id)
	link := filepath.Join(dir, "skillsync-probe-link-"+id)

	if err := os.WriteFile(target, []byte("probe"), 0644); err != nil {
		klog.Warningf("[sync.probe] 创建探测文件失败: error=%v", err)
		return false
	}
	defer os.Remove(target)

	if err := os.Symlink(target, link); err != nil {
		klog.V(6).Infof("当前平台不允许创建符号链接，使用复制模式: error=%v", err)
		return false
	}
	os.Remove(link)
	return true
}
