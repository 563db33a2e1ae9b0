// Package api 提供上传、规范化、公式复制与运行记录的 HTTP 接口。
package api

import (
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"paysheet/internal/importer"
	"paysheet/internal/store"
)

// Handler API 处理器
type Handler struct {
	store       *store.Store
	coordinator *importer.Coordinator
	uploadDir   string
	downloads   *exportDownloadStore
	logger      *zap.Logger
}

// NewHandler 创建 API 处理器；uploadDir 为空时使用系统临时目录
func NewHandler(st *store.Store, coordinator *importer.Coordinator, uploadDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	return &Handler{
		store:       st,
		coordinator: coordinator,
		uploadDir:   uploadDir,
		downloads:   newExportDownloadStore(),
		logger:      logger,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 员工表规范化
	router.POST("/users", h.CreateUsers)
	router.POST("/users/stream", h.CreateUsersStream)

	// 考勤公式复制
	router.POST("/attendance/replicate", h.ReplicateAttendance)

	// 运行记录
	router.GET("/runs", h.ListRuns)
	router.GET("/runs/:id", h.GetRun)

	// 职位别名
	router.GET("/aliases", h.ListAliases)
	router.PUT("/aliases", h.SetAlias)
	router.DELETE("/aliases/:raw", h.DeleteAlias)

	// 结果下载
	router.GET("/exports/:token", h.DownloadExport)
}
