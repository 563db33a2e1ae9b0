package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paysheet/internal/model"
	"paysheet/internal/store"
)

// ListRuns 运行记录列表
// GET /api/runs?kind=normalize&status=done&page=1&pageSize=20
func (h *Handler) ListRuns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}

	runs, err := h.store.ListRuns(store.RunQuery{
		Kind:   model.RunKind(c.Query("kind")),
		Status: model.RunStatus(c.Query("status")),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		abortWithError(c, "获取运行记录失败", err)
		return
	}
	total, err := h.store.CountRuns()
	if err != nil {
		abortWithError(c, "获取运行记录失败", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    runs,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// GetRun 单条运行记录
// GET /api/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.store.GetRun(c.Param("id"))
	if err != nil {
		abortWithError(c, "运行记录不存在", err)
		return
	}
	c.JSON(http.StatusOK, run)
}
