package websocket

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"HibiscusSOS/pkg/metrics"
)

// Frame 线上帧：{type, payload}
type Frame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Router 将一条入站帧转换为零或多条待广播帧；Snapshot 返回
// 新连接的完整初始状态。实现方负责状态变更的串行化。
type Router interface {
	Route(raw []byte) []Frame
	Snapshot() interface{}
}

// Connection 表示一个WebSocket连接
type Connection struct {
	ID       string
	UserID   string
	Role     string // "user" / "admin"
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
	LastPing time.Time
	IsAlive  bool
	mu       sync.RWMutex
	Metadata map[string]interface{}

	// 注册时的广播序号：更早的广播已包含在快照里，跳过投递
	joinSeq uint64
}

type inboundFrame struct {
	conn *Connection
	data []byte
}

// Hub 管理所有WebSocket连接并承担广播扇出。
// 入站帧在 run 循环里逐条交给 Router，变更与广播入队在同一次
// 迭代内完成，因此注册（快照）与增量广播之间存在全序：
// 快照之后到达的连接不会收到快照已覆盖的增量，也不会漏掉后续增量。
type Hub struct {
	// 注册的连接
	connections map[string]*Connection
	// 入站帧通道（所有连接的读协程汇入）
	inbound chan inboundFrame
	// 出站广播通道（路由之外的旁路广播，如清理任务）
	outbound chan Frame
	// 注册/注销通道
	register   chan *Connection
	unregister chan *Connection
	// 连接计数
	connectionCount int64
	// 广播序号，仅 run 循环自增
	seq uint64
	// 配置
	config *Config
	// 互斥锁
	mu sync.RWMutex
	// 上下文
	ctx    context.Context
	cancel context.CancelFunc

	router Router

	// 分片连接表，降低扇出时的锁竞争；
	// 每个分片一个投递协程，保证同一连接上的广播顺序
	shardCount int
	shardConns []map[string]*Connection
	shardLocks []sync.RWMutex
	shardJobs  []chan broadcastJob
}

type broadcastJob struct {
	seq   uint64
	shard int
	data  []byte
}

// NewHub 创建新的Hub实例并启动主循环
func NewHub(config *Config, router Router) *Hub {
	if config == nil {
		config = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	hub := &Hub{
		connections: make(map[string]*Connection),
		inbound:     make(chan inboundFrame, config.MessageQueueSize),
		outbound:    make(chan Frame, config.MessageQueueSize),
		register:    make(chan *Connection, 1000),
		unregister:  make(chan *Connection, 1000),
		config:      config,
		ctx:         ctx,
		cancel:      cancel,
		router:      router,
	}

	if hub.config.ShardCount <= 0 {
		hub.config.ShardCount = 1
	}
	hub.shardCount = hub.config.ShardCount
	hub.shardConns = make([]map[string]*Connection, hub.shardCount)
	hub.shardLocks = make([]sync.RWMutex, hub.shardCount)
	hub.shardJobs = make([]chan broadcastJob, hub.shardCount)
	for i := 0; i < hub.shardCount; i++ {
		hub.shardConns[i] = make(map[string]*Connection)
		hub.shardJobs[i] = make(chan broadcastJob, hub.config.MessageQueueSize)
		go hub.broadcastWorker(i)
	}

	go hub.run()
	return hub
}

// Broadcast 将一条帧排队广播给所有连接（路由之外的入口，
// 供清理任务等使用；与入站路由共用 run 循环的全序）。
func (h *Hub) Broadcast(frame Frame) {
	select {
	case h.outbound <- frame:
	case <-h.ctx.Done():
	}
}

// run Hub主循环：注册、注销、路由、广播都在这里串行处理
func (h *Hub) run() {
	ticker := time.NewTicker(h.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case conn := <-h.register:
			h.registerConnection(conn)
		case conn := <-h.unregister:
			h.unregisterConnection(conn)
		case in := <-h.inbound:
			for _, frame := range h.router.Route(in.data) {
				h.emit(frame)
			}
		case frame := <-h.outbound:
			h.emit(frame)
		case <-ticker.C:
			h.checkHeartbeats()
		}
	}
}

// emit 序列化一次并按分片入队
func (h *Hub) emit(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		logrus.Errorf("广播帧序列化失败: %v", err)
		return
	}
	h.seq++
	metrics.BroadcastsTotal.WithLabelValues(frame.Type).Inc()
	for i := 0; i < h.shardCount; i++ {
		select {
		case h.shardJobs[i] <- broadcastJob{seq: h.seq, shard: i, data: data}:
		default:
			logrus.Warnf("广播作业队列已满，消息被丢弃")
			metrics.BroadcastsDropped.Inc()
		}
	}
}

// registerConnection 注册连接并直接投递快照
func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if atomic.LoadInt64(&h.connectionCount) >= h.config.MaxConnections {
		conn.closeSocket()
		logrus.Warnf("达到最大连接数限制: %d", h.config.MaxConnections)
		return
	}

	conn.joinSeq = h.seq

	h.connections[conn.ID] = conn
	atomic.AddInt64(&h.connectionCount, 1)
	metrics.ConnectionsActive.Set(float64(atomic.LoadInt64(&h.connectionCount)))

	sh := h.shardIndex(conn.ID)
	h.shardLocks[sh].Lock()
	h.shardConns[sh][conn.ID] = conn
	h.shardLocks[sh].Unlock()

	// 快照只发给新连接本身，先于一切后续广播进入其发送队列
	snapshot := Frame{Type: "INIT_DATA", Payload: h.router.Snapshot()}
	if data, err := json.Marshal(snapshot); err != nil {
		logrus.Errorf("快照序列化失败: %v", err)
	} else {
		h.trySend(conn, data, func() {
			logrus.Warnf("连接 %s 未能接收快照，关闭", conn.ID)
			conn.closeSocket()
		})
	}

	logrus.Infof("WebSocket连接已注册: %s, 用户: %s, 角色: %s, 当前连接数: %d",
		conn.ID, conn.UserID, conn.Role, atomic.LoadInt64(&h.connectionCount))
}

// unregisterConnection 注销连接
func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.connections[conn.ID]; exists {
		delete(h.connections, conn.ID)
		atomic.AddInt64(&h.connectionCount, -1)
		metrics.ConnectionsActive.Set(float64(atomic.LoadInt64(&h.connectionCount)))

		// Send 的关闭必须和分片表删除在同一个临界区里完成，
		// 否则投递协程可能拿着旧快照往已关闭的通道写
		sh := h.shardIndex(conn.ID)
		h.shardLocks[sh].Lock()
		delete(h.shardConns[sh], conn.ID)
		close(conn.Send)
		h.shardLocks[sh].Unlock()
		logrus.Infof("WebSocket连接已注销: %s, 当前连接数: %d",
			conn.ID, atomic.LoadInt64(&h.connectionCount))
	}
}

// checkHeartbeats 检查心跳
func (h *Hub) checkHeartbeats() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	for _, conn := range h.connections {
		conn.mu.RLock()
		last := conn.LastPing
		conn.mu.RUnlock()
		if now.Sub(last) > h.config.ConnectionTimeout {
			logrus.Warnf("连接 %s 心跳超时，准备关闭", conn.ID)
			conn.setAlive(false)
			conn.closeSocket()
		}
	}
}

// GetConnectionCount 获取当前连接数
func (h *Hub) GetConnectionCount() int64 {
	return atomic.LoadInt64(&h.connectionCount)
}

// ConnectionDetails 返回各连接的概要（含来源元数据），供 stats 接口展示
func (h *Hub) ConnectionDetails() []map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	details := make([]map[string]interface{}, 0, len(h.connections))
	for _, conn := range h.connections {
		conn.mu.RLock()
		details = append(details, map[string]interface{}{
			"id":       conn.ID,
			"userId":   conn.UserID,
			"role":     conn.Role,
			"lastPing": conn.LastPing.Format(time.RFC3339),
			"alive":    conn.IsAlive,
			"metadata": conn.Metadata,
		})
		conn.mu.RUnlock()
	}
	return details
}

// Close 关闭Hub
func (h *Hub) Close() {
	h.cancel()

	h.mu.Lock()
	for _, conn := range h.connections {
		conn.closeSocket()
	}
	h.mu.Unlock()

	logrus.Info("WebSocket Hub已关闭")
}

// shardIndex 计算分片索引
func (h *Hub) shardIndex(id string) int {
	if h.shardCount <= 1 {
		return 0
	}
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(id))
	return int(hasher.Sum32() % uint32(h.shardCount))
}

// broadcastWorker 单个分片的投递协程。
// 投递前比较连接的 joinSeq：快照已覆盖的广播跳过，避免新连接
// 收到重复的增量；单个连接投递失败不影响其余连接。
func (h *Hub) broadcastWorker(shard int) {
	for job := range h.shardJobs[shard] {
		h.shardLocks[job.shard].RLock()
		for _, conn := range h.shardConns[job.shard] {
			if !conn.alive() || job.seq <= conn.joinSeq {
				continue
			}
			h.trySend(conn, job.data, func() {
				logrus.Debugf("连接 %s 发送缓冲区满，已按策略处理", conn.ID)
				metrics.BroadcastsDropped.Inc()
			})
		}
		h.shardLocks[job.shard].RUnlock()
	}
}

func (c *Connection) alive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.IsAlive
}

func (c *Connection) setAlive(v bool) {
	c.mu.Lock()
	c.IsAlive = v
	c.mu.Unlock()
}

// closeSocket 关闭底层socket（测试中的裸连接没有socket）
func (c *Connection) closeSocket() {
	if c.Conn != nil {
		c.Conn.Close()
	}
}

// trySend 背压策略
func (h *Hub) trySend(conn *Connection, data []byte, onDrop func()) {
	if h.config.DropOnFull {
		select {
		case conn.Send <- data:
		default:
			onDrop()
			if h.config.CloseOnBackpressure {
				conn.closeSocket()
			}
		}
		return
	}
	// 非丢弃模式：限定等待时长
	timeout := h.config.SendTimeout
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	select {
	case conn.Send <- data:
	case <-time.After(timeout):
		onDrop()
		if h.config.CloseOnBackpressure {
			conn.closeSocket()
		}
	}
}
