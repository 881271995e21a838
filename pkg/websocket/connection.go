package websocket

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

// newUpgrader 根据配置创建WebSocket升级器
func newUpgrader(cfg *Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			// 演示部署对各端开放，生产环境应校验 Origin
			return true
		},
		EnableCompression: cfg.EnableCompression,
	}
}

// HandleWebSocket 升级HTTP连接并接入Hub
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID, role string) {
	upgrader := newUpgrader(hub.config)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("WebSocket升级失败: %v", err)
		return
	}

	if hub.config.EnableCompression {
		conn.EnableWriteCompression(true)
		if hub.config.CompressionLevel != 0 {
			_ = conn.SetCompressionLevel(hub.config.CompressionLevel)
		}
	}

	connection := &Connection{
		ID:       "conn_" + uuid.NewString(),
		UserID:   userID,
		Role:     role,
		Conn:     conn,
		Send:     make(chan []byte, hub.config.MessageBufferSize),
		Hub:      hub,
		LastPing: time.Now(),
		IsAlive:  true,
		Metadata: connMetadata(r),
	}

	hub.register <- connection

	go connection.writePump()
	go connection.readPump()
}

// connMetadata 记录来源信息，便于运维排查
func connMetadata(r *http.Request) map[string]interface{} {
	md := map[string]interface{}{
		"remoteAddr": r.RemoteAddr,
	}
	if raw := r.UserAgent(); raw != "" {
		ua := user_agent.New(raw)
		name, version := ua.Browser()
		md["browser"] = name + " " + version
		md["os"] = ua.OS()
		md["mobile"] = ua.Mobile()
	}
	return md
}

// readPump 读取消息的协程。
// 帧内容不在这里解释，原样交给Hub的run循环统一路由，
// 保证所有状态变更的全序。
func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(int64(c.Hub.config.MaxMessageSize))
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ConnectionTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.LastPing = time.Now()
		c.mu.Unlock()
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ConnectionTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket读取错误: %v", err)
			}
			break
		}

		c.mu.Lock()
		c.LastPing = time.Now()
		c.mu.Unlock()

		select {
		case c.Hub.inbound <- inboundFrame{conn: c, data: message}:
		case <-c.Hub.ctx.Done():
			return
		}
	}
}

// writePump 发送消息的协程。每条消息独立成帧（协议要求单帧单消息）。
func (c *Connection) writePump() {
	interval := c.Hub.config.HeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(time.Duration(float64(interval) * 0.9))
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
