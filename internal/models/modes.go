package models

// DisasterMode 灾难演练模式（进程级全局开关，由 admin 侧指令切换）
type DisasterMode struct {
	Active    bool   `json:"active"`
	Type      string `json:"type,omitempty"`      // "earthquake" "flood" 等
	Timestamp string `json:"timestamp,omitempty"` // 激活时间
}

// TrafficSimulation 交通模拟开关集合，支持部分字段合并
type TrafficSimulation struct {
	Active          *bool   `json:"active,omitempty"`
	CongestionLevel *string `json:"congestionLevel,omitempty"`
	BlockedRoads    *bool   `json:"blockedRoads,omitempty"`
	SignalFailures  *bool   `json:"signalFailures,omitempty"`
}

// Merge 用 patch 中出现的字段覆盖当前值
func (t *TrafficSimulation) Merge(patch TrafficSimulation) {
	if patch.Active != nil {
		t.Active = patch.Active
	}
	if patch.CongestionLevel != nil {
		t.CongestionLevel = patch.CongestionLevel
	}
	if patch.BlockedRoads != nil {
		t.BlockedRoads = patch.BlockedRoads
	}
	if patch.SignalFailures != nil {
		t.SignalFailures = patch.SignalFailures
	}
}

// 地图视图模式
const (
	MapViewStandard  = "standard"
	MapViewSatellite = "satellite"
	MapViewHeatmap   = "heatmap"
)
