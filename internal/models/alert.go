package models

import "time"

// Severity 告警严重级别（由外部 AI 分类器给出）
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// Valid 是否为已知级别
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// ResolutionType 告警归档方式
type ResolutionType string

const (
	ResolutionResolved ResolutionType = "Resolved"
	ResolutionRejected ResolutionType = "Rejected"
)

// SOS Alert（求助警报）
// 生命周期：pending -> accepted -> archived，或 pending -> archived（驳回），不可逆。
// pending/accepted 存在于活跃列表；archived 的瞬间整体移入历史列表，两个列表互斥。
type Alert struct {
	ID             string         `json:"id"`
	Timestamp      string         `json:"timestamp"` // RFC3339 创建时间
	Status         Severity       `json:"status"`
	Location       string         `json:"location"` // 原始坐标 "lat, lon"
	FullAddress    *string        `json:"fullAddress"`
	UserID         string         `json:"userId"`
	Transcript     string         `json:"transcript,omitempty"`
	AIReasoning    string         `json:"aiReasoning,omitempty"`
	Accepted       bool           `json:"accepted"`
	AcceptedAt     *string        `json:"acceptedAt,omitempty"`
	Resolved       bool           `json:"resolved"`
	ResolvedAt     *string        `json:"resolvedAt,omitempty"`
	ResolutionType ResolutionType `json:"resolutionType,omitempty"`
	VideoData      string         `json:"videoData,omitempty"`     // 证据对象引用
	VideoAnalysis  string         `json:"videoAnalysis,omitempty"` // AI 对证据的描述
}

// Pending 是否仍未被处置
func (a *Alert) Pending() bool { return !a.Accepted && !a.Resolved }

// Archived 是否已归档
func (a *Alert) Archived() bool { return a.Resolved }

// Clone 深拷贝，避免调用方持有内部指针
func (a *Alert) Clone() *Alert {
	cp := *a
	if a.FullAddress != nil {
		v := *a.FullAddress
		cp.FullAddress = &v
	}
	if a.AcceptedAt != nil {
		v := *a.AcceptedAt
		cp.AcceptedAt = &v
	}
	if a.ResolvedAt != nil {
		v := *a.ResolvedAt
		cp.ResolvedAt = &v
	}
	return &cp
}

// Now 统一的时间戳格式
func Now() string { return time.Now().UTC().Format(time.RFC3339) }
