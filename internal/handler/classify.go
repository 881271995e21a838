package handlers

import (
	"github.com/gin-gonic/gin"

	"HibiscusSOS/pkg/llm"
	"HibiscusSOS/pkg/response"
)

// ClassifyRequest 分级请求
type ClassifyRequest struct {
	Transcript    string `json:"transcript" binding:"required"`
	VideoAnalysis string `json:"videoAnalysis"`
}

// HandleClassify 调用AI分类器给求助文本定级。
// 分类器未配置或失败时返回降级结果而不是错误，前端总能拿到可用级别。
func (h *Handlers) HandleClassify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	if h.classifier == nil {
		// 未配置分类器时仍返回可用级别
		response.Success(c, "classifier disabled", llm.FallbackResult())
		return
	}

	result := h.classifier.Classify(c.Request.Context(), req.Transcript, req.VideoAnalysis)
	response.Success(c, "classified", result)
}
