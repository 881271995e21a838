package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"HibiscusSOS/pkg/response"
	"HibiscusSOS/pkg/search"
)

// HandleHistorySearch 历史告警全文检索：
// ?q=keyword&severity=Critical&resolution=Resolved&userId=u&from=0&size=10
func (h *Handlers) HandleHistorySearch(c *gin.Context) {
	if h.index == nil {
		response.FailWithStatus(c, http.StatusNotImplemented, "search disabled")
		return
	}

	var q search.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Fail(c, "invalid query", gin.H{"error": err.Error()})
		return
	}

	result, err := h.index.Search(c.Request.Context(), q)
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "search failed")
		return
	}
	response.Success(c, "search result", result)
}
