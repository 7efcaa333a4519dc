package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/skillsync/backend/internal/dto"
	"github.com/weibaohui/skillsync/backend/internal/pkg/tools"
	syncservice "github.com/weibaohui/skillsync/backend/internal/service/sync"
	"k8s.io/klog/v2"
)

type ToolHandler struct {
	detector *tools.Detector
	engine   *syncservice.Service
}

func NewToolHandler(detector *tools.Detector, engine *syncservice.Service) *ToolHandler {
	return &ToolHandler{detector: detector, engine: engine}
}

// RegisterRoutes 注册路由
func (h *ToolHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/tools", h.List)
	router.GET("/tools/skills", h.ListSkills)
	router.GET("/tools/:id", h.Get)
}

func (h *ToolHandler) List(c *gin.Context) {
	dto.OK(c, h.detector.DetectAll())
}

func (h *ToolHandler) Get(c *gin.Context) {
	id := c.Param("id")
	tool, err := h.detector.Detect(id)
	if err != nil {
		if errors.Is(err, tools.ErrToolNotSupported) {
			dto.Fail(c, http.StatusNotFound, `Tool "`+id+`" not found`)
			return
		}
		klog.Errorf("[handler.Tool.Get] 探测工具失败: tool=%s, error=%v", id, err)
		dto.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	dto.OK(c, tool)
}

// ListSkills 列出各已安装工具目录中的技能，供导入使用
func (h *ToolHandler) ListSkills(c *gin.Context) {
	dto.OK(c, h.engine.ListToolsSkills())
}
