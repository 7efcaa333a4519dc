package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/skillsync/backend/internal/dto"
	"github.com/weibaohui/skillsync/backend/internal/pkg/tools"
	"github.com/weibaohui/skillsync/backend/internal/repository"
	syncservice "github.com/weibaohui/skillsync/backend/internal/service/sync"
	"k8s.io/klog/v2"
)

const defaultEventLimit = 100

type SyncHandler struct {
	engine   *syncservice.Service
	detector *tools.Detector
	events   repository.SyncEventRepository
}

func NewSyncHandler(engine *syncservice.Service, detector *tools.Detector, events repository.SyncEventRepository) *SyncHandler {
	return &SyncHandler{engine: engine, detector: detector, events: events}
}

// RegisterRoutes 注册路由
func (h *SyncHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/sync")
	{
		g.POST("/skill", h.SyncSkill)
		g.POST("/skill/:skillId/all", h.SyncSkillToAll)
		g.POST("/tool/:toolId", h.SyncTool)
		g.POST("/all", h.SyncAll)
		g.GET("/status", h.StatusAll)
		g.GET("/status/:toolId", h.Status)
		g.GET("/events", h.Events)
	}
}

func (h *SyncHandler) SyncSkill(c *gin.Context) {
	var req dto.SyncSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	result := h.engine.SyncSkillToTool(c.Request.Context(), req.SkillID, req.ToolID)
	dto.Result(c, result.Success, result, result.Error)
}

func (h *SyncHandler) SyncSkillToAll(c *gin.Context) {
	results := h.engine.SyncSkillToAllTools(c.Request.Context(), c.Param("skillId"))
	writeBatch(c, results)
}

func (h *SyncHandler) SyncTool(c *gin.Context) {
	toolID := c.Param("toolId")
	if _, ok := tools.Lookup(h.detector.Definitions(), toolID); !ok {
		dto.Fail(c, http.StatusNotFound, `Tool "`+toolID+`" not supported`)
		return
	}
	results, err := h.engine.SyncAllSkillsToTool(c.Request.Context(), toolID)
	if err != nil {
		klog.Errorf("[handler.Sync.SyncTool] 同步失败: tool=%s, error=%v", toolID, err)
		dto.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	writeBatch(c, results)
}

func (h *SyncHandler) SyncAll(c *gin.Context) {
	results, err := h.engine.SyncAll(c.Request.Context())
	if err != nil {
		klog.Errorf("[handler.Sync.SyncAll] 同步失败: error=%v", err)
		dto.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	writeBatch(c, results)
}

func writeBatch(c *gin.Context, results []syncservice.SyncResult) {
	succeeded, failed := syncservice.CountResults(results)
	dto.OK(c, dto.SyncBatch{Results: results, Succeeded: succeeded, Failed: failed})
}

func (h *SyncHandler) Status(c *gin.Context) {
	toolID := c.Param("toolId")
	statuses, err := h.engine.GetSyncStatus(toolID)
	if err != nil {
		if errors.Is(err, tools.ErrToolNotSupported) {
			dto.Fail(c, http.StatusNotFound, `Tool "`+toolID+`" not supported`)
			return
		}
		dto.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	dto.OK(c, statuses)
}

// StatusAll 汇总所有已探测工具的同步状态
func (h *SyncHandler) StatusAll(c *gin.Context) {
	all := make([]syncservice.SyncStatus, 0)
	for _, tool := range h.detector.DetectedTools() {
		statuses, err := h.engine.GetSyncStatus(tool.ID)
		if err != nil {
			klog.Warningf("[handler.Sync.StatusAll] 获取状态失败: tool=%s, error=%v", tool.ID, err)
			continue
		}
		all = append(all, statuses...)
	}
	dto.OK(c, all)
}

// Events 查询操作日志，支持 toolId、skillId、type、limit 过滤
func (h *SyncHandler) Events(c *gin.Context) {
	if h.events == nil {
		dto.OK(c, []any{})
		return
	}
	limit := defaultEventLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			dto.Fail(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	filter := repository.SyncEventFilter{
		ToolID:     c.Query("toolId"),
		SkillID:    c.Query("skillId"),
		EventTypes: c.QueryArray("type"),
		Limit:      limit,
	}
	events, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		klog.Errorf("[handler.Sync.Events] 查询操作日志失败: error=%v", err)
		dto.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	dto.OK(c, events)
}
