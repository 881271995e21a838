package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"HibiscusSOS/internal/models"
)

// Store 进程内唯一的共享状态持有者。
// 所有变更都经由同一把互斥锁串行化，复现参考实现"同一时刻只处理一条消息"
// 的不可交错不变量；广播与连接管理从不直接触碰内部集合。
type Store struct {
	mu      sync.Mutex
	alerts  []*models.Alert          // 活跃列表（pending/accepted），按创建顺序
	history []*models.Alert          // 历史列表（resolved/rejected）
	users   map[string]*models.ActiveUser
	byID    map[string]*models.Alert // 仅索引活跃告警

	disaster models.DisasterMode
	traffic  models.TrafficSimulation
	mapView  string

	now func() time.Time // 便于测试注入
}

// Snapshot 新连接收到的完整初始状态（INIT_DATA 的 payload）
type Snapshot struct {
	Alerts            []*models.Alert          `json:"alerts"`
	History           []*models.Alert          `json:"history"`
	ActiveUsers       map[string]*models.ActiveUser `json:"activeUsers"`
	DisasterMode      models.DisasterMode      `json:"disasterMode"`
	TrafficSimulation models.TrafficSimulation `json:"trafficSimulation"`
	MapViewMode       string                   `json:"mapViewMode"`
}

// New 创建空状态存储
func New() *Store {
	return &Store{
		users:   make(map[string]*models.ActiveUser),
		byID:    make(map[string]*models.Alert),
		mapView: models.MapViewStandard,
		now:     time.Now,
	}
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// AppendAlert 新建告警：服务端分配 id 与 timestamp，仅插入活跃列表。
// urgency 非法或缺失时降级为 Critical。
func (s *Store) AppendAlert(in models.Alert) *models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := in.Clone()
	a.ID = uuid.NewString()
	a.Timestamp = s.timestamp()
	a.Accepted = false
	a.AcceptedAt = nil
	a.Resolved = false
	a.ResolvedAt = nil
	a.ResolutionType = ""
	if !a.Status.Valid() {
		a.Status = models.SeverityCritical
	}

	s.alerts = append(s.alerts, a)
	s.byID[a.ID] = a
	return a.Clone()
}

// AcceptAlert pending -> accepted；未知 id 或已处置时返回 ok=false
func (s *Store) AcceptAlert(id string) (*models.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok || a.Accepted {
		return nil, false
	}
	a.Accepted = true
	ts := s.timestamp()
	a.AcceptedAt = &ts
	return a.Clone(), true
}

// ArchiveAlert 将活跃告警原子地移入历史列表。
// 移除与插入发生在同一临界区内：任何读者都不会观察到告警同时
// 出现在两个列表或都不出现。
func (s *Store) ArchiveAlert(id string, rt models.ResolutionType) (*models.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	a.Resolved = true
	ts := s.timestamp()
	a.ResolvedAt = &ts
	a.ResolutionType = rt

	delete(s.byID, id)
	for i, cur := range s.alerts {
		if cur.ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			break
		}
	}
	s.history = append(s.history, a)
	return a.Clone(), true
}

// UpsertUserLocation 按 userId 覆盖位置记录，并同步修补该用户的所有活跃告警。
// 返回被修补的告警副本。
func (s *Store) UpsertUserLocation(userID, location string, fullAddress *string) (*models.ActiveUser, []*models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &models.ActiveUser{
		UserID:      userID,
		Location:    location,
		FullAddress: fullAddress,
		LastSeen:    s.timestamp(),
	}
	s.users[userID] = u

	var patched []*models.Alert
	for _, a := range s.alerts {
		if a.UserID == userID {
			a.Location = location
			a.FullAddress = fullAddress
			patched = append(patched, a.Clone())
		}
	}
	return u.Clone(), patched
}

// EvictStaleUsers 移除 lastSeen 早于 cutoff 的用户，返回被移除的 userId
func (s *Store) EvictStaleUsers(olderThan time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	var evicted []string
	for id, u := range s.users {
		last, err := time.Parse(time.RFC3339, u.LastSeen)
		if err != nil || last.Before(cutoff) {
			delete(s.users, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// SetDisasterMode 激活灾难模式
func (s *Store) SetDisasterMode(typ string) models.DisasterMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disaster = models.DisasterMode{Active: true, Type: typ, Timestamp: s.timestamp()}
	return s.disaster
}

// ClearDisasterMode 关闭灾难模式
func (s *Store) ClearDisasterMode() models.DisasterMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disaster = models.DisasterMode{}
	return s.disaster
}

// MergeTrafficSimulation 合并交通模拟开关
func (s *Store) MergeTrafficSimulation(patch models.TrafficSimulation) models.TrafficSimulation {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traffic.Merge(patch)
	return s.traffic
}

// SetMapViewMode 切换地图视图
func (s *Store) SetMapViewMode(mode string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mapView = mode
	return s.mapView
}

// ActiveUsers 当前用户位置表的副本
func (s *Store) ActiveUsers() map[string]*models.ActiveUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyUsers()
}

func (s *Store) copyUsers() map[string]*models.ActiveUser {
	out := make(map[string]*models.ActiveUser, len(s.users))
	for id, u := range s.users {
		out[id] = u.Clone()
	}
	return out
}

// Snapshot 当前完整状态的副本
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts := make([]*models.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		alerts = append(alerts, a.Clone())
	}
	history := make([]*models.Alert, 0, len(s.history))
	for _, a := range s.history {
		history = append(history, a.Clone())
	}
	return Snapshot{
		Alerts:            alerts,
		History:           history,
		ActiveUsers:       s.copyUsers(),
		DisasterMode:      s.disaster,
		TrafficSimulation: s.traffic,
		MapViewMode:       s.mapView,
	}
}

// Counts 活跃/历史数量（监控用）
func (s *Store) Counts() (active, history, users int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts), len(s.history), len(s.users)
}
