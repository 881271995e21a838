package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"HibiscusSOS/pkg/metrics"
	"HibiscusSOS/pkg/response"
)

// HealthCheck 健康检查接口
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// GetStats 运行统计：状态仓库各列表规模 + 系统资源
func (h *Handlers) GetStats(c *gin.Context) {
	active, history, users := h.store.Counts()

	stats := gin.H{
		"uptime":        time.Since(h.startedAt).Round(time.Second).String(),
		"active_alerts": active,
		"history_count": history,
		"active_users":  users,
		"system":        metrics.CollectSystem(),
	}
	if h.index != nil {
		if count, err := h.index.DocCount(); err == nil {
			stats["indexed_alerts"] = count
		}
	}
	response.Success(c, "stats", stats)
}

// GetSnapshot 完整状态快照（与 INIT_DATA 同构，调试用）
func (h *Handlers) GetSnapshot(c *gin.Context) {
	response.Success(c, "snapshot", h.store.Snapshot())
}
