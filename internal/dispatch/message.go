package dispatch

import (
	"encoding/json"

	"HibiscusSOS/internal/models"
)

// 入站消息类型
const (
	TypeNewAlert           = "NEW_ALERT"
	TypeAcceptAlert        = "ACCEPT_ALERT"
	TypeResolveAlert       = "RESOLVE_ALERT"
	TypeRejectAlert        = "REJECT_ALERT"
	TypeLocationUpdate     = "LOCATION_UPDATE"
	TypeActivateDisaster   = "ACTIVATE_DISASTER"
	TypeDeactivateDisaster = "DEACTIVATE_DISASTER"
	TypeUpdateTrafficSim   = "UPDATE_TRAFFIC_SIM"
	TypeSetMapViewMode     = "SET_MAP_VIEW_MODE"
)

// 出站广播类型
const (
	TypeInitData            = "INIT_DATA"
	TypeAlertCreated        = "ALERT_CREATED"
	TypeAlertUpdated        = "ALERT_UPDATED"
	TypeAlertResolved       = "ALERT_RESOLVED"
	TypeUserLocationUpdated = "USER_LOCATION_UPDATED"
	TypeDisasterActivated   = "DISASTER_ACTIVATED"
	TypeDisasterDeactivated = "DISASTER_DEACTIVATED"
	TypeTrafficSimUpdated   = "TRAFFIC_SIM_UPDATED"
	TypeMapViewModeUpdated  = "MAP_VIEW_MODE_UPDATED"
	TypeUserEvicted         = "USER_EVICTED"
)

// Message 线上帧：{type, payload}，双向同构。
// payload 先保留原始字节，按 type 二次解码到对应的具体结构，
// 未知字段/未知类型一律丢弃而不是动态取值。
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound 待广播的出站帧
type Outbound struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NewAlertPayload NEW_ALERT 的载荷；location 必填，urgency 缺省 Critical
type NewAlertPayload struct {
	Location      string          `json:"location"`
	Urgency       models.Severity `json:"urgency"`
	UserID        string          `json:"userId"`
	FullAddress   *string         `json:"fullAddress"`
	Transcript    string          `json:"transcript"`
	AIReasoning   string          `json:"aiReasoning"`
	VideoData     string          `json:"videoData"`
	VideoAnalysis string          `json:"videoAnalysis"`
}

// AlertRefPayload 引用既有告警的指令载荷
type AlertRefPayload struct {
	ID string `json:"id"`
}

// LocationUpdatePayload LOCATION_UPDATE 的载荷
type LocationUpdatePayload struct {
	UserID      string  `json:"userId"`
	Location    string  `json:"location"`
	FullAddress *string `json:"fullAddress"`
}

// DisasterPayload ACTIVATE_DISASTER 的载荷
type DisasterPayload struct {
	Type string `json:"type"`
}

// MapViewPayload SET_MAP_VIEW_MODE 的载荷
type MapViewPayload struct {
	Mode string `json:"mode"`
}

// UserLocationBroadcast USER_LOCATION_UPDATED 的载荷
type UserLocationBroadcast struct {
	UserID      string                        `json:"userId"`
	Location    string                        `json:"location"`
	FullAddress *string                       `json:"fullAddress"`
	ActiveUsers map[string]*models.ActiveUser `json:"activeUsers"`
}

// AlertResolvedBroadcast ALERT_RESOLVED 的载荷
type AlertResolvedBroadcast struct {
	AlertID       string        `json:"alertId"`
	ResolvedAlert *models.Alert `json:"resolvedAlert"`
}

// UserEvictedBroadcast USER_EVICTED 的载荷
type UserEvictedBroadcast struct {
	UserIDs []string `json:"userIds"`
}
