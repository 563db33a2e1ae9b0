package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"paysheet/internal/importer"
	"paysheet/internal/model"
)

const downloadTTL = 10 * time.Minute

// UsersResponse 规范化结果
type UsersResponse struct {
	Message       string             `json:"message"`
	RunID         string             `json:"runId"`
	SheetName     string             `json:"sheetName"`
	Rows          int                `json:"rows"`
	Unresolved    []model.Unresolved `json:"unresolved,omitempty"`
	DownloadToken string             `json:"downloadToken"`
	DownloadURL   string             `json:"downloadUrl"`
}

func strictParam(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.DefaultPostForm("strict", c.DefaultQuery("strict", "false")))
	return err == nil && v
}

// CreateUsers 上传员工工作簿并生成标准报表
// POST /api/users
func (h *Handler) CreateUsers(c *gin.Context) {
	fh := formFile(c, "file")
	if fh == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}

	path, err := h.saveUpload(c, fh)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "File upload failed", "error": err.Error()})
		return
	}
	defer os.Remove(path)

	report, err := h.coordinator.RunNormalize(c.Request.Context(), importer.NormalizeOptions{
		FilePath: path,
		Filename: fh.Filename,
		Strict:   strictParam(c),
	})
	if err != nil {
		h.logger.Warn("normalize request failed", zap.String("file", fh.Filename), zap.Error(err))
		abortWithError(c, "Error reading Excel file", err)
		return
	}

	token := h.downloads.put(report.OutputPath, report.SheetName+".xlsx", downloadTTL)
	c.JSON(http.StatusCreated, UsersResponse{
		Message:       "File uploaded and read successfully",
		RunID:         report.RunID,
		SheetName:     report.SheetName,
		Rows:          report.Rows,
		Unresolved:    report.Unresolved,
		DownloadToken: token,
		DownloadURL:   downloadURL(token),
	})
}

// CreateUsersStream 同 CreateUsers，以 SSE 推送进度
// POST /api/users/stream
func (h *Handler) CreateUsersStream(c *gin.Context) {
	fh := formFile(c, "file")
	if fh == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}

	path, err := h.saveUpload(c, fh)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "File upload failed", "error": err.Error()})
		return
	}
	defer os.Remove(path)

	events := h.coordinator.Normalize(c.Request.Context(), importer.NormalizeOptions{
		FilePath: path,
		Filename: fh.Filename,
		Strict:   strictParam(c),
	})
	h.streamEvents(c, events)
}

// streamEvents 以 SSE 转发进度事件；done 事件附带下载地址
func (h *Handler) streamEvents(c *gin.Context, events <-chan importer.ProgressEvent) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "不支持流式响应"})
		return
	}

	for event := range events {
		if report, ok := event.Data.(*importer.Report); ok && event.Type == "done" {
			token := h.downloads.put(report.OutputPath, report.SheetName+".xlsx", downloadTTL)
			event.Data = gin.H{
				"report":        report,
				"downloadToken": token,
				"downloadUrl":   downloadURL(token),
			}
		}

		// 序列化事件为 JSON
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

func downloadURL(token string) string {
	return "/api/exports/" + token
}
