package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "HibiscusSOS/pkg/errors"
	"HibiscusSOS/pkg/response"
	stores "HibiscusSOS/pkg/storage"
)

// maxEvidenceSize 单份证据上限
const maxEvidenceSize = 32 << 20 // 32MB

// HandleEvidenceUpload 上传告警证据（multipart: alertId + file），
// 返回对象键和访问地址。状态里只存引用，不存字节。
func (h *Handlers) HandleEvidenceUpload(c *gin.Context) {
	if h.evidence == nil {
		response.FailWithStatus(c, http.StatusNotImplemented, "evidence storage disabled")
		return
	}

	alertID := c.PostForm("alertId")
	if alertID == "" {
		response.Fail(c, "missing alertId", nil)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, "missing file", gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	if header.Size > maxEvidenceSize {
		response.FailWithStatus(c, http.StatusRequestEntityTooLarge, "evidence too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := stores.EvidenceKey(alertID)
	if err := h.evidence.Write(c.Request.Context(), key, file, header.Size, contentType); err != nil {
		logrus.Errorf("证据写入失败 (alert %s): %v", alertID, err)
		response.FailWithCode(c, http.StatusBadGateway, apperrors.GetCode(err), "evidence upload failed")
		return
	}

	response.Success(c, "uploaded", gin.H{
		"key": key,
		"url": h.evidence.PublicURL(key),
	})
}
