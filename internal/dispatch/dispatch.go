package dispatch

import (
	"encoding/json"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"HibiscusSOS/internal/models"
	"HibiscusSOS/internal/store"
	"HibiscusSOS/pkg/metrics"
)

// archivedCacheSize 近期归档 id 的记忆容量，用于区分"迟到指令"与"未知 id"
const archivedCacheSize = 4096

// ArchiveHook 告警归档时的回调（用于历史索引等旁路处理）
type ArchiveHook func(alert *models.Alert)

// Dispatcher 事件路由器：一条入站消息对应至多一次状态变更，
// 返回零或多条待广播消息。任何解析失败或未知 id 都被就地吞掉，
// 不中断连接也不污染共享状态。
type Dispatcher struct {
	store    *store.Store
	archived *lru.Cache[string, struct{}]
	hooks    []ArchiveHook
}

// New 创建事件路由器
func New(st *store.Store, hooks ...ArchiveHook) *Dispatcher {
	cache, _ := lru.New[string, struct{}](archivedCacheSize)
	return &Dispatcher{store: st, archived: cache, hooks: hooks}
}

// Dispatch 处理一条入站帧。store 的互斥锁保证全局变更串行，
// 因此这里无需额外同步。
func (d *Dispatcher) Dispatch(raw []byte) []Outbound {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		logrus.Warnf("丢弃不可解析的消息: %v", err)
		metrics.DispatchErrors.WithLabelValues("unparseable").Inc()
		return nil
	}
	return d.dispatch(msg)
}

func (d *Dispatcher) dispatch(msg Message) []Outbound {
	metrics.MessagesReceived.WithLabelValues(msg.Type).Inc()
	switch msg.Type {
	case TypeNewAlert:
		return d.handleNewAlert(msg.Payload)
	case TypeAcceptAlert:
		return d.handleAccept(msg.Payload)
	case TypeResolveAlert:
		return d.handleArchive(msg.Payload, models.ResolutionResolved)
	case TypeRejectAlert:
		return d.handleArchive(msg.Payload, models.ResolutionRejected)
	case TypeLocationUpdate:
		return d.handleLocationUpdate(msg.Payload)
	case TypeActivateDisaster:
		return d.handleActivateDisaster(msg.Payload)
	case TypeDeactivateDisaster:
		d.store.ClearDisasterMode()
		return []Outbound{{Type: TypeDisasterDeactivated, Payload: struct{}{}}}
	case TypeUpdateTrafficSim:
		return d.handleTrafficSim(msg.Payload)
	case TypeSetMapViewMode:
		return d.handleMapView(msg.Payload)
	default:
		logrus.Warnf("未知的消息类型: %s", msg.Type)
		metrics.DispatchErrors.WithLabelValues("unknown_type").Inc()
		return nil
	}
}

func (d *Dispatcher) handleNewAlert(raw json.RawMessage) []Outbound {
	var p NewAlertPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		logrus.Warnf("NEW_ALERT 载荷解析失败: %v", err)
		metrics.DispatchErrors.WithLabelValues("bad_payload").Inc()
		return nil
	}
	if strings.TrimSpace(p.Location) == "" {
		logrus.Warn("NEW_ALERT 缺少 location，已丢弃")
		metrics.DispatchErrors.WithLabelValues("bad_payload").Inc()
		return nil
	}

	alert := d.store.AppendAlert(models.Alert{
		Location:      p.Location,
		Status:        p.Urgency,
		UserID:        p.UserID,
		FullAddress:   p.FullAddress,
		Transcript:    p.Transcript,
		AIReasoning:   p.AIReasoning,
		VideoData:     p.VideoData,
		VideoAnalysis: p.VideoAnalysis,
	})
	metrics.AlertsCreated.WithLabelValues(string(alert.Status)).Inc()
	logrus.Infof("新告警 %s (级别 %s, 用户 %s)", alert.ID, alert.Status, alert.UserID)
	return []Outbound{{Type: TypeAlertCreated, Payload: alert}}
}

func (d *Dispatcher) handleAccept(raw json.RawMessage) []Outbound {
	ref, ok := d.decodeRef(raw)
	if !ok {
		return nil
	}
	alert, ok := d.store.AcceptAlert(ref.ID)
	if !ok {
		d.logMissing("ACCEPT_ALERT", ref.ID)
		return nil
	}
	return []Outbound{{Type: TypeAlertUpdated, Payload: alert}}
}

func (d *Dispatcher) handleArchive(raw json.RawMessage, rt models.ResolutionType) []Outbound {
	ref, ok := d.decodeRef(raw)
	if !ok {
		return nil
	}
	alert, ok := d.store.ArchiveAlert(ref.ID, rt)
	if !ok {
		d.logMissing(string(rt), ref.ID)
		return nil
	}

	d.archived.Add(alert.ID, struct{}{})
	for _, hook := range d.hooks {
		hook(alert)
	}
	metrics.AlertsArchived.WithLabelValues(string(rt)).Inc()
	logrus.Infof("告警 %s 已归档 (%s)", alert.ID, rt)
	return []Outbound{{
		Type:    TypeAlertResolved,
		Payload: AlertResolvedBroadcast{AlertID: alert.ID, ResolvedAlert: alert},
	}}
}

func (d *Dispatcher) handleLocationUpdate(raw json.RawMessage) []Outbound {
	var p LocationUpdatePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.UserID == "" || p.Location == "" {
		logrus.Warn("LOCATION_UPDATE 载荷不完整，已丢弃")
		metrics.DispatchErrors.WithLabelValues("bad_payload").Inc()
		return nil
	}

	user, patched := d.store.UpsertUserLocation(p.UserID, p.Location, p.FullAddress)

	out := []Outbound{{
		Type: TypeUserLocationUpdated,
		Payload: UserLocationBroadcast{
			UserID:      user.UserID,
			Location:    user.Location,
			FullAddress: user.FullAddress,
			ActiveUsers: d.store.ActiveUsers(),
		},
	}}
	// 被修补的活跃告警同步广播，保持各端地图标记一致
	for _, a := range patched {
		out = append(out, Outbound{Type: TypeAlertUpdated, Payload: a})
	}
	return out
}

func (d *Dispatcher) handleActivateDisaster(raw json.RawMessage) []Outbound {
	var p DisasterPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Type == "" {
		logrus.Warn("ACTIVATE_DISASTER 缺少 type，已丢弃")
		metrics.DispatchErrors.WithLabelValues("bad_payload").Inc()
		return nil
	}
	dm := d.store.SetDisasterMode(p.Type)
	return []Outbound{{Type: TypeDisasterActivated, Payload: dm}}
}

func (d *Dispatcher) handleTrafficSim(raw json.RawMessage) []Outbound {
	var p models.TrafficSimulation
	if err := json.Unmarshal(raw, &p); err != nil {
		logrus.Warnf("UPDATE_TRAFFIC_SIM 载荷解析失败: %v", err)
		metrics.DispatchErrors.WithLabelValues("bad_payload").Inc()
		return nil
	}
	ts := d.store.MergeTrafficSimulation(p)
	return []Outbound{{Type: TypeTrafficSimUpdated, Payload: ts}}
}

func (d *Dispatcher) handleMapView(raw json.RawMessage) []Outbound {
	var p MapViewPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Mode == "" {
		logrus.Warn("SET_MAP_VIEW_MODE 缺少 mode，已丢弃")
		metrics.DispatchErrors.WithLabelValues("bad_payload").Inc()
		return nil
	}
	mode := d.store.SetMapViewMode(p.Mode)
	return []Outbound{{Type: TypeMapViewModeUpdated, Payload: MapViewPayload{Mode: mode}}}
}

func (d *Dispatcher) decodeRef(raw json.RawMessage) (AlertRefPayload, bool) {
	var ref AlertRefPayload
	if err := json.Unmarshal(raw, &ref); err != nil || ref.ID == "" {
		logrus.Warn("指令缺少告警 id，已丢弃")
		metrics.DispatchErrors.WithLabelValues("bad_payload").Inc()
		return ref, false
	}
	return ref, true
}

// logMissing 未知 id 静默忽略；近期归档过的 id 记为迟到指令，便于排查
func (d *Dispatcher) logMissing(op, id string) {
	if _, late := d.archived.Get(id); late {
		logrus.Debugf("%s 引用了已归档的告警 %s（迟到指令，忽略）", op, id)
		metrics.DispatchErrors.WithLabelValues("late_command").Inc()
		return
	}
	logrus.Debugf("%s 引用了不存在的告警 %s（忽略）", op, id)
	metrics.DispatchErrors.WithLabelValues("unknown_id").Inc()
}

// EvictStaleUsers 移除超过 olderThan 未上报的用户，必要时返回待广播消息。
// 由调度器周期性触发。
func (d *Dispatcher) EvictStaleUsers(olderThan time.Duration) []Outbound {
	evicted := d.store.EvictStaleUsers(olderThan)
	if len(evicted) == 0 {
		return nil
	}
	logrus.Infof("清理 %d 个静默用户", len(evicted))
	return []Outbound{{Type: TypeUserEvicted, Payload: UserEvictedBroadcast{UserIDs: evicted}}}
}

// Snapshot 当前完整状态（新连接的 INIT_DATA）
func (d *Dispatcher) Snapshot() store.Snapshot {
	return d.store.Snapshot()
}
