package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/skillsync/backend/internal/dto"
	"github.com/weibaohui/skillsync/backend/internal/pkg/skills"
	"k8s.io/klog/v2"
)

type SkillHandler struct {
	store *skills.Store
}

func NewSkillHandler(store *skills.Store) *SkillHandler {
	return &SkillHandler{store: store}
}

// RegisterRoutes 注册路由
func (h *SkillHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/skills")
	{
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/:id", h.Get)
		g.DELETE("/:id", h.Delete)
		g.GET("/:id/files/*path", h.GetFile)
		g.PUT("/:id/files/*path", h.UpdateFile)
		g.DELETE("/:id/files/*path", h.DeleteFile)
	}
}

func (h *SkillHandler) List(c *gin.Context) {
	list, err := h.store.List()
	if err != nil {
		klog.Errorf("[handler.Skill.List] 列出技能失败: error=%v", err)
		dto.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	dto.OK(c, list)
}

func (h *SkillHandler) Get(c *gin.Context) {
	id := c.Param("id")
	skill, err := h.store.Get(id)
	if err != nil {
		writeSkillError(c, id, err)
		return
	}
	dto.OK(c, skill)
}

func (h *SkillHandler) Create(c *gin.Context) {
	var req dto.CreateSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		dto.Fail(c, http.StatusBadRequest, "Skill name is required")
		return
	}

	skill, err := h.store.Create(req.Name, req.Description, req.SourceTool)
	if err != nil {
		writeSkillError(c, req.Name, err)
		return
	}
	dto.OKWithMessage(c, http.StatusCreated, skill, fmt.Sprintf("Skill %q created", req.Name))
}

func (h *SkillHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.store.Delete(id)
	if err != nil {
		klog.Errorf("[handler.Skill.Delete] 删除技能失败: skill=%s, error=%v", id, err)
		dto.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		dto.Fail(c, http.StatusNotFound, fmt.Sprintf("Skill %q not found", id))
		return
	}
	dto.OKWithMessage(c, http.StatusOK, nil, fmt.Sprintf("Skill %q deleted", id))
}

func (h *SkillHandler) GetFile(c *gin.Context) {
	id, path := c.Param("id"), c.Param("path")
	content, err := h.store.GetFileContent(id, path)
	if err != nil {
		writeSkillError(c, id, err)
		return
	}
	dto.OK(c, content)
}

func (h *SkillHandler) UpdateFile(c *gin.Context) {
	id, path := c.Param("id"), c.Param("path")
	var req dto.UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !h.store.Exists(id) {
		dto.Fail(c, http.StatusNotFound, fmt.Sprintf("Skill %q not found", id))
		return
	}
	if err := h.store.UpdateFile(id, path, *req.Content); err != nil {
		writeSkillError(c, id, err)
		return
	}
	dto.OKWithMessage(c, http.StatusOK, nil, "File updated")
}

func (h *SkillHandler) DeleteFile(c *gin.Context) {
	id, path := c.Param("id"), c.Param("path")
	deleted, err := h.store.DeleteFile(id, path)
	if err != nil {
		writeSkillError(c, id, err)
		return
	}
	if !deleted {
		dto.Fail(c, http.StatusNotFound, "File not found")
		return
	}
	dto.OKWithMessage(c, http.StatusOK, nil, "File deleted")
}

func writeSkillError(c *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, skills.ErrSkillNotFound):
		dto.Fail(c, http.StatusNotFound, fmt.Sprintf("Skill %q not found", id))
	case errors.Is(err, skills.ErrFileNotFound):
		dto.Fail(c, http.StatusNotFound, "File not found")
	case errors.Is(err, skills.ErrSkillAlreadyExists):
		dto.Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, skills.ErrInvalidName), errors.Is(err, skills.ErrPathEscapesSkill):
		dto.Fail(c, http.StatusBadRequest, err.Error())
	default:
		klog.Errorf("[handler.Skill] 操作失败: skill=%s, error=%v", id, err)
		dto.Fail(c, http.StatusInternalServerError, err.Error())
	}
}
