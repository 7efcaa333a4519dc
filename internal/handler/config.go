package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/skillsync/backend/config"
	"github.com/weibaohui/skillsync/backend/internal/dto"
	"k8s.io/klog/v2"
)

type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// RegisterRoutes 注册路由
func (h *ConfigHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/config", h.Get)
	router.PUT("/config", h.Update)
}

func (h *ConfigHandler) Get(c *gin.Context) {
	dto.OK(c, h.cfg.Snapshot())
}

func (h *ConfigHandler) Update(c *gin.Context) {
	var patch config.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		dto.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	settings, err := h.cfg.Update(patch)
	if err != nil {
		if errors.Is(err, config.ErrInvalidSetting) {
			dto.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		klog.Errorf("[handler.Config.Update] 保存配置失败: path=%s, error=%v", h.cfg.Path(), err)
		dto.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	dto.OKWithMessage(c, http.StatusOK, settings, "Config updated")
}
