package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/weibaohui/skillsync/backend/internal/dto"
	"k8s.io/klog/v2"
)

// Version 服务版本，构建时可通过 -ldflags 覆盖
var Version = "1.0.0"

const hostInfoTimeout = 2 * time.Second

type SystemHandler struct {
	startedAt time.Time
	method    func() string
}

// NewSystemHandler method 返回当前进程使用的同步方式
func NewSystemHandler(method func() string) *SystemHandler {
	return &SystemHandler{startedAt: time.Now(), method: method}
}

// RegisterRoutes 注册路由
func (h *SystemHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.Health)
	router.GET("/system", h.System)
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

type systemInfo struct {
	Version       string `json:"version"`
	GOOS          string `json:"goos"`
	GOARCH        string `json:"goarch"`
	GoVersion     string `json:"goVersion"`
	Hostname      string `json:"hostname,omitempty"`
	Platform      string `json:"platform,omitempty"`
	PlatformVer   string `json:"platformVersion,omitempty"`
	KernelVersion string `json:"kernelVersion,omitempty"`
	MemoryTotal   uint64 `json:"memoryTotal,omitempty"`
	SyncMethod    string `json:"syncMethod"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

// System 返回主机平台信息与同步方式；平台信息获取失败时只返回运行时字段
func (h *SystemHandler) System(c *gin.Context) {
	info := systemInfo{
		Version:       Version,
		GOOS:          runtime.GOOS,
		GOARCH:        runtime.GOARCH,
		GoVersion:     runtime.Version(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}
	if h.method != nil {
		info.SyncMethod = h.method()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), hostInfoTimeout)
	defer cancel()
	if hi, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = hi.Hostname
		info.Platform = hi.Platform
		info.PlatformVer = hi.PlatformVersion
		info.KernelVersion = hi.KernelVersion
	} else {
		klog.V(6).Infof("获取主机信息失败: error=%v", err)
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryTotal = vm.Total
	}

	dto.OK(c, info)
}
