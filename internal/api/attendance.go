package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"paysheet/internal/importer"
)

// ReplicateResponse 公式复制结果
type ReplicateResponse struct {
	Message       string `json:"message"`
	RunID         string `json:"runId"`
	SheetName     string `json:"sheetName"`
	Rows          int    `json:"rows"`
	DownloadToken string `json:"downloadToken"`
	DownloadURL   string `json:"downloadUrl"`
}

// ReplicateAttendance 按考勤行数复制模板公式行
// POST /api/attendance/replicate (file=考勤工作簿, template=可选模板工作簿)
func (h *Handler) ReplicateAttendance(c *gin.Context) {
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

	opts := importer.ReplicateOptions{FilePath: path, Filename: fh.Filename}
	if tfh := formFile(c, "template"); tfh != nil {
		templatePath, err := h.saveUpload(c, tfh)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "File upload failed", "error": err.Error()})
			return
		}
		defer os.Remove(templatePath)
		opts.TemplatePath = templatePath
	}

	report, err := h.coordinator.RunReplicate(c.Request.Context(), opts)
	if err != nil {
		h.logger.Warn("replicate request failed", zap.String("file", fh.Filename), zap.Error(err))
		abortWithError(c, "Error replicating formulas", err)
		return
	}

	token := h.downloads.put(report.OutputPath, report.SheetName+".xlsx", downloadTTL)
	c.JSON(http.StatusCreated, ReplicateResponse{
		Message:       "Formulas copied down successfully",
		RunID:         report.RunID,
		SheetName:     report.SheetName,
		Rows:          report.Rows,
		DownloadToken: token,
		DownloadURL:   downloadURL(token),
	})
}
