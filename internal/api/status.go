package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paysheet/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	TotalRuns       int    `json:"totalRuns"`
	LastRunID       string `json:"lastRunId,omitempty"`
	LastRunStatus   string `json:"lastRunStatus,omitempty"`
	LastRunTime     string `json:"lastRunTime,omitempty"`
	TemplatePath    string `json:"templatePath"`
	Strict          bool   `json:"strict"`
	ReferencePolicy string `json:"referencePolicy"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	settings := h.coordinator.Settings()
	resp := StatusResponse{
		TemplatePath:    settings.TemplatePath,
		Strict:          settings.Strict,
		ReferencePolicy: settings.Policy.String(),
	}

	total, err := h.store.CountRuns()
	if err != nil {
		abortWithError(c, "获取状态失败", err)
		return
	}
	resp.TotalRuns = total

	runs, err := h.store.ListRuns(store.RunQuery{Limit: 1})
	if err == nil && len(runs) > 0 {
		resp.LastRunID = runs[0].ID
		resp.LastRunStatus = string(runs[0].Status)
		resp.LastRunTime = runs[0].CreatedAt.Format("2006-01-02 15:04:05")
	}

	c.JSON(http.StatusOK, resp)
}
