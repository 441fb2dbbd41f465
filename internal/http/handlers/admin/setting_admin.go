package admin

import (
	"strings"

	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UpdateSettingsRequest 更新设置请求
type UpdateSettingsRequest struct {
	Key   string                 `json:"key"`
	Value map[string]interface{} `json:"value" binding:"required"`
}

// GetSettings 查询设置
func (h *Handler) GetSettings(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		key = constants.SettingKeyCartConfig
	}

	value, err := h.SettingService.GetByKey(key)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to get settings", err)
		return
	}
	response.Success(c, gin.H{
		"key":   key,
		"value": value,
	})
}

// UpdateSettings 更新设置（写入后立即生效）
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		key = constants.SettingKeyCartConfig
	}

	value, err := h.SettingService.Update(key, req.Value)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to update settings", err)
		return
	}
	response.Success(c, gin.H{
		"key":   key,
		"value": value,
	})
}
