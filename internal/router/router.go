package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/weibaohui/skillsync/backend/internal/handler"
)

const requestIDHeader = "X-Request-ID"

// Handlers 需要注册到 /api 下的全部处理器
type Handlers struct {
	System *handler.SystemHandler
	Tool   *handler.ToolHandler
	Skill  *handler.SkillHandler
	Config *handler.ConfigHandler
	Sync   *handler.SyncHandler
	Import *handler.ImportHandler
}

func Setup(mode string, h Handlers) *gin.Engine {
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), requestID())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3001", "http://127.0.0.1:3001"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	api := r.Group("/api")
	{
		h.System.RegisterRoutes(api)
		h.Tool.RegisterRoutes(api)
		h.Skill.RegisterRoutes(api)
		h.Config.RegisterRoutes(api)
		h.Sync.RegisterRoutes(api)
		h.Import.RegisterRoutes(api)
	}

	return r
}

// requestID 透传或生成请求 ID
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
