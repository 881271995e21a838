package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler WebSocket HTTP处理器
type Handler struct {
	hub *Hub
}

// NewHandler 创建新的WebSocket处理器
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes 统一注册路由
func RegisterRoutes(r *gin.Engine, handler *Handler) {
	r.GET(RouteWebSocket, handler.HandleWebSocket)
	r.GET(RouteWebSocketStats, handler.GetStats)
	r.GET(RouteWebSocketHealth, handler.HealthCheck)
}

// HandleWebSocket 处理WebSocket连接请求。
// 协议不做鉴权：userId 由客户端自报，缺省分配匿名 id；
// role 仅用于日志与统计，不限制任何指令。
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		userID = "anonymous_" + uuid.NewString()[:8]
	}
	role := c.Query("role")
	if role != RoleAdmin {
		role = RoleUser
	}

	HandleWebSocket(h.hub, c.Writer, c.Request, userID, role)
}

// GetStats 获取WebSocket统计信息
func (h *Handler) GetStats(c *gin.Context) {
	cfg := h.hub.config
	c.JSON(http.StatusOK, gin.H{
		"total_connections":   h.hub.GetConnectionCount(),
		"connections":         h.hub.ConnectionDetails(),
		"max_connections":     cfg.MaxConnections,
		"heartbeat_interval":  cfg.HeartbeatInterval.String(),
		"connection_timeout":  cfg.ConnectionTimeout.String(),
		"message_buffer_size": cfg.MessageBufferSize,
		"message_queue_size":  cfg.MessageQueueSize,
		"enable_compression":  cfg.EnableCompression,
		"read_buffer_size":    cfg.ReadBufferSize,
		"write_buffer_size":   cfg.WriteBufferSize,
		"max_message_size":    cfg.MaxMessageSize,
		"shard_count":         cfg.ShardCount,
		"drop_on_full":        cfg.DropOnFull,
		"compression_level":   cfg.CompressionLevel,
	})
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"connections": h.hub.GetConnectionCount(),
	})
}
