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

type ImportHandler struct {
	engine *syncservice.Service
}

func NewImportHandler(engine *syncservice.Service) *ImportHandler {
	return &ImportHandler{engine: engine}
}

// RegisterRoutes 注册导入与合并路由
func (h *ImportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/import", h.Import)
	router.POST("/import/all", h.ImportAll)
	router.POST("/import/restore", h.Restore)
	router.GET("/merge/preview/:toolId", h.PreviewMerge)
	router.POST("/merge/execute", h.ExecuteMerge)
}

func (h *ImportHandler) Import(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	result := h.engine.ImportFromTool(c.Request.Context(), req.ToolID, req.SkillName, syncservice.ImportOptions{
		Overwrite:  req.Overwrite,
		UseSymlink: req.UseSymlink,
	})
	dto.Result(c, result.Success, result, result.Error)
}

func (h *ImportHandler) ImportAll(c *gin.Context) {
	var req dto.ImportAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	batch := h.engine.ImportAllFromTool(c.Request.Context(), req.ToolID, req.Overwrite)
	dto.Result(c, batch.Success, batch, batch.Error)
}

func (h *ImportHandler) Restore(c *gin.Context) {
	var req dto.RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	result := h.engine.RestoreFromSymlink(c.Request.Context(), req.ToolID, req.SkillName)
	dto.Result(c, result.Success, result, result.Error)
}

func (h *ImportHandler) PreviewMerge(c *gin.Context) {
	toolID := c.Param("toolId")
	previews, err := h.engine.PreviewMerge(toolID)
	if err != nil {
		if errors.Is(err, tools.ErrToolNotSupported) {
			dto.Fail(c, http.StatusNotFound, `Tool "`+toolID+`" not supported`)
			return
		}
		klog.Errorf("[handler.Import.PreviewMerge] 合并预览失败: tool=%s, error=%v", toolID, err)
		dto.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	dto.OK(c, previews)
}

func (h *ImportHandler) ExecuteMerge(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	result := h.engine.ExecuteMerge(c.Request.Context(), req.ToolID, req.SkillName, req.Overwrite)
	dto.Result(c, result.Success, result, result.Error)
}
