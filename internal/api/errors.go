package api

import (
	"archive/zip"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"paysheet/internal/importer"
	"paysheet/internal/reader"
	"paysheet/internal/sink"
	"paysheet/internal/store"
)

// statusFor 工作簿结构不可用 → 422，记录不存在 → 404，其余 → 500
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrNotEnoughSheets),
		errors.Is(err, importer.ErrNoTemplate),
		errors.Is(err, reader.ErrNoSheets),
		errors.Is(err, reader.ErrSheetNotFound),
		errors.Is(err, sink.ErrTemplateSheetNotFound),
		errors.Is(err, zip.ErrFormat),
		errors.Is(err, excelize.ErrWorkbookFileFormat):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, message string, err error) {
	c.JSON(statusFor(err), gin.H{"message": message, "error": err.Error()})
}
