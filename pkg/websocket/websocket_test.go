package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRouter 测试用路由：原样回显入站帧
type stubRouter struct {
	snapshot interface{}
}

func (s *stubRouter) Route(raw []byte) []Frame {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return []Frame{f}
}

func (s *stubRouter) Snapshot() interface{} { return s.snapshot }

func newTestConn(id, userID string) *Connection {
	return &Connection{
		ID:       id,
		UserID:   userID,
		Role:     RoleUser,
		Send:     make(chan []byte, 16),
		LastPing: time.Now(),
		IsAlive:  true,
		Metadata: make(map[string]interface{}),
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil, &stubRouter{})
	assert.NotNil(t, hub)
	assert.Equal(t, int64(10000), hub.config.MaxConnections)
	assert.Equal(t, 30*time.Second, hub.config.HeartbeatInterval)

	hub.Close()
}

func TestHubConnectionManagement(t *testing.T) {
	hub := NewHub(nil, &stubRouter{})
	defer hub.Close()

	conn := newTestConn("test_conn_1", "test_user_1")

	hub.register <- conn
	time.Sleep(100 * time.Millisecond) // 等待处理

	assert.Equal(t, int64(1), hub.GetConnectionCount())

	hub.unregister <- conn
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int64(0), hub.GetConnectionCount())
}

func TestSnapshotDeliveredFirst(t *testing.T) {
	hub := NewHub(nil, &stubRouter{snapshot: map[string]int{"alerts": 2}})
	defer hub.Close()

	conn := newTestConn("test_conn_1", "test_user_1")
	hub.register <- conn
	time.Sleep(100 * time.Millisecond)

	// 注册后第一条一定是 INIT_DATA
	select {
	case data := <-conn.Send:
		var frame Frame
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, "INIT_DATA", frame.Type)
	default:
		t.Fatal("没有收到快照")
	}
}

func TestBroadcastReachesAllConnections(t *testing.T) {
	hub := NewHub(nil, &stubRouter{})
	defer hub.Close()

	connA := newTestConn("conn_a", "user_a")
	connB := newTestConn("conn_b", "user_b")
	hub.register <- connA
	hub.register <- connB
	time.Sleep(100 * time.Millisecond)

	// 丢弃两端的快照
	<-connA.Send
	<-connB.Send

	hub.Broadcast(Frame{Type: "ALERT_CREATED", Payload: map[string]string{"id": "x"}})
	time.Sleep(100 * time.Millisecond)

	for _, conn := range []*Connection{connA, connB} {
		select {
		case data := <-conn.Send:
			var frame Frame
			require.NoError(t, json.Unmarshal(data, &frame))
			assert.Equal(t, "ALERT_CREATED", frame.Type)
		default:
			t.Fatalf("连接 %s 没有收到广播", conn.ID)
		}
	}
}

func TestJoinSeqSkipsCoveredBroadcasts(t *testing.T) {
	hub := NewHub(nil, &stubRouter{})
	defer hub.Close()

	// 先产生两条广播（无人接收），推进序号
	hub.Broadcast(Frame{Type: "ALERT_CREATED"})
	hub.Broadcast(Frame{Type: "ALERT_UPDATED"})
	time.Sleep(100 * time.Millisecond)

	conn := newTestConn("late_conn", "late_user")
	hub.register <- conn
	time.Sleep(100 * time.Millisecond)

	// 只应收到快照，快照已覆盖的广播不再投递
	assert.Len(t, conn.Send, 1)
	var frame Frame
	require.NoError(t, json.Unmarshal(<-conn.Send, &frame))
	assert.Equal(t, "INIT_DATA", frame.Type)

	// 注册之后的广播正常到达
	hub.Broadcast(Frame{Type: "ALERT_RESOLVED"})
	time.Sleep(100 * time.Millisecond)
	require.Len(t, conn.Send, 1)
	require.NoError(t, json.Unmarshal(<-conn.Send, &frame))
	assert.Equal(t, "ALERT_RESOLVED", frame.Type)
}

func TestInboundRoutedAndFannedOut(t *testing.T) {
	hub := NewHub(nil, &stubRouter{})
	defer hub.Close()

	conn := newTestConn("conn_1", "user_1")
	hub.register <- conn
	time.Sleep(100 * time.Millisecond)
	<-conn.Send // 快照

	hub.inbound <- inboundFrame{conn: conn, data: []byte(`{"type":"NEW_ALERT","payload":{}}`)}
	time.Sleep(100 * time.Millisecond)

	// 发送方本身也收到广播
	require.Len(t, conn.Send, 1)
	var frame Frame
	require.NoError(t, json.Unmarshal(<-conn.Send, &frame))
	assert.Equal(t, "NEW_ALERT", frame.Type)
}

func TestWebSocketHandler(t *testing.T) {
	hub := NewHub(nil, &stubRouter{})
	defer hub.Close()

	handler := NewHandler(hub)

	req := httptest.NewRequest("GET", "/ws/stats", nil)
	w := httptest.NewRecorder()

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.GetStats(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response, "total_connections")
}

// stats 接口输出各连接的来源元数据
func TestStatsExposeConnectionMetadata(t *testing.T) {
	hub := NewHub(nil, &stubRouter{})
	defer hub.Close()

	conn := newTestConn("conn_meta", "user_meta")
	conn.Metadata["browser"] = "Firefox 120"
	hub.register <- conn
	time.Sleep(100 * time.Millisecond)

	handler := NewHandler(hub)
	w := httptest.NewRecorder()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/ws/stats", nil)

	handler.GetStats(c)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	conns := response["connections"].([]interface{})
	require.Len(t, conns, 1)
	entry := conns[0].(map[string]interface{})
	assert.Equal(t, "user_meta", entry["userId"])
	md := entry["metadata"].(map[string]interface{})
	assert.Equal(t, "Firefox 120", md["browser"])
}

func TestConfigValidation(t *testing.T) {
	validConfig := &Config{
		MaxConnections:    1000,
		HeartbeatInterval: 30 * time.Second,
		ConnectionTimeout: 60 * time.Second,
		MessageBufferSize: 256,
		MessageQueueSize:  1000,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		MaxMessageSize:    4096,
		ShardCount:        4,
		CompressionLevel:  -2,
	}
	assert.NoError(t, ValidateConfig(validConfig))

	invalidConfig := &Config{
		MaxConnections:    0,
		HeartbeatInterval: 60 * time.Second,
		ConnectionTimeout: 30 * time.Second,
	}
	assert.Error(t, ValidateConfig(invalidConfig))
}

func TestConfigLoading(t *testing.T) {
	config := DefaultConfig()
	assert.NotNil(t, config)
	assert.Equal(t, int64(10000), config.MaxConnections)

	clonedConfig := CloneConfig(config)
	assert.NotNil(t, clonedConfig)
	assert.Equal(t, config.MaxConnections, clonedConfig.MaxConnections)

	config1 := &Config{MaxConnections: 1000}
	config2 := &Config{HeartbeatInterval: 60 * time.Second}

	mergedConfig := MergeConfig(config1, config2)
	assert.Equal(t, int64(1000), mergedConfig.MaxConnections)
	assert.Equal(t, 60*time.Second, mergedConfig.HeartbeatInterval)
}
