package api

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
)

// saveUpload 保存表单文件到上传目录，返回路径；调用方负责删除
func (h *Handler) saveUpload(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	name := fmt.Sprintf("paysheet_upload_%d_%s", time.Now().UnixNano(), filepath.Base(fh.Filename))
	path := filepath.Join(h.uploadDir, name)
	if err := c.SaveUploadedFile(fh, path); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// formFile 取表单中的文件，不存在返回 nil
func formFile(c *gin.Context, field string) *multipart.FileHeader {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return fh
}
