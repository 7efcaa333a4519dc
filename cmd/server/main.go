package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/weibaohui/skillsync/backend/config"
	"github.com/weibaohui/skillsync/backend/internal/eventbus"
	"github.com/weibaohui/skillsync/backend/internal/handler"
	"github.com/weibaohui/skillsync/backend/internal/pkg/database"
	"github.com/weibaohui/skillsync/backend/internal/pkg/skills"
	"github.com/weibaohui/skillsync/backend/internal/pkg/tools"
	"github.com/weibaohui/skillsync/backend/internal/repository"
	"github.com/weibaohui/skillsync/backend/internal/router"
	syncservice "github.com/weibaohui/skillsync/backend/internal/service/sync"
	"github.com/weibaohui/skillsync/backend/internal/subscriber"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "配置文件路径，默认 $SKILL_SYNC_CONFIG_DIR/config.yaml")
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	settings := cfg.Snapshot()

	repoPath, err := cfg.EnsureSkillRepo()
	if err != nil {
		log.Fatalf("Failed to prepare skill repository: %v", err)
	}
	klog.V(6).Infof("规范仓库: path=%s", repoPath)

	// 初始化操作日志数据库
	if settings.Database.Type != "mysql" {
		if err := os.MkdirAll(filepath.Dir(settings.Database.DSN), 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}
	db, err := database.InitDB(settings.Database.Type, settings.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 操作日志：引擎 -> 事件总线 -> 订阅者 -> 数据库
	eventRepo := repository.NewSyncEventRepository(db)
	bus := eventbus.NewSyncEventBus()
	subscriber.NewSyncEventSubscriber(eventRepo).Register(bus)

	store := skills.NewStore(cfg)
	detector := tools.NewDetector()
	engine := syncservice.New(store, detector, syncservice.WithEventPublisher(bus))
	klog.V(6).Infof("同步方式: method=%s", engine.Method())

	r := router.Setup(settings.Server.Mode, router.Handlers{
		System: handler.NewSystemHandler(func() string { return string(engine.Method()) }),
		Tool:   handler.NewToolHandler(detector, engine),
		Skill:  handler.NewSkillHandler(store),
		Config: handler.NewConfigHandler(cfg),
		Sync:   handler.NewSyncHandler(engine, detector, eventRepo),
		Import: handler.NewImportHandler(engine),
	})

	srv := &http.Server{
		Addr:    net.JoinHostPort(settings.Server.Host, settings.Server.Port),
		Handler: r,
	}

	go func() {
		log.Printf("Server starting on %s...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	klog.V(6).Infof("收到信号，开始关闭: signal=%s", sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		klog.Errorf("[main] 服务关闭失败: error=%v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	klog.V(6).Info("服务已停止")
}
