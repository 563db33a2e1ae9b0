package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paysheet/internal/parser"
)

// AliasRequest 新增职位别名
type AliasRequest struct {
	Raw       string `json:"raw" binding:"required"`
	Canonical string `json:"canonical" binding:"required"`
}

// ListAliases 内置与运行期别名
// GET /api/aliases
func (h *Handler) ListAliases(c *gin.Context) {
	custom, err := h.store.ListAliases()
	if err != nil {
		abortWithError(c, "获取别名失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"builtin": parser.DefaultAliasRules().Merge(h.coordinator.Settings().Aliases),
		"custom":  custom,
	})
}

// SetAlias 新增或覆盖运行期别名
// PUT /api/aliases
func (h *Handler) SetAlias(c *gin.Context) {
	var req AliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "无效的请求参数", "error": err.Error()})
		return
	}
	if err := h.store.SetAlias(req.Raw, req.Canonical); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "保存别名失败", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// DeleteAlias 删除运行期别名
// DELETE /api/aliases/:raw
func (h *Handler) DeleteAlias(c *gin.Context) {
	if err := h.store.DeleteAlias(c.Param("raw")); err != nil {
		abortWithError(c, "删除别名失败", err)
		return
	}
	c.Status(http.StatusNoContent)
}
