package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 所有 API 的统一响应结构
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK 成功响应
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// OKWithMessage 成功响应并附带提示信息
func OKWithMessage(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{Success: true, Data: data, Message: message})
}

// Fail 失败响应
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Error: message})
}

// SyncBatch 批量同步结果及统计
type SyncBatch struct {
	Results   any `json:"results"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// SyncSkillRequest 同步单个技能到单个工具
type SyncSkillRequest struct {
	SkillID string `json:"skillId" binding:"required"`
	ToolID  string `json:"toolId" binding:"required"`
}

// CreateSkillRequest 新建技能
type CreateSkillRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SourceTool  string `json:"sourceTool"`
}

// UpdateFileRequest 写入技能内文件
type UpdateFileRequest struct {
	Content *string `json:"content" binding:"required"`
}

// ImportRequest 从工具导入单个技能，也用于合并执行
type ImportRequest struct {
	ToolID     string `json:"toolId" binding:"required"`
	SkillName  string `json:"skillName" binding:"required"`
	Overwrite  bool   `json:"overwrite"`
	UseSymlink bool   `json:"useSymlink"`
}

// ImportAllRequest 从工具导入全部技能
type ImportAllRequest struct {
	ToolID    string `json:"toolId" binding:"required"`
	Overwrite bool   `json:"overwrite"`
}

// RestoreRequest 将工具侧链接还原为目录
type RestoreRequest struct {
	ToolID    string `json:"toolId" binding:"required"`
	SkillName string `json:"skillName" binding:"required"`
}

// Result 引擎结果响应：结果本身携带成功标志，HTTP 状态恒为 200
func Result(c *gin.Context, success bool, data any, errMsg string) {
	c.JSON(http.StatusOK, Response{Success: success, Data: data, Error: errMsg})
}
