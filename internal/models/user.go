package models

// ActiveUser 上报端的最近位置记录，按 userId 去重（upsert-only）
type ActiveUser struct {
	UserID      string  `json:"userId"`
	Location    string  `json:"location"` // "lat, lon"
	FullAddress *string `json:"fullAddress"`
	LastSeen    string  `json:"lastSeen"` // RFC3339
}

// Clone 深拷贝
func (u *ActiveUser) Clone() *ActiveUser {
	cp := *u
	if u.FullAddress != nil {
		v := *u.FullAddress
		cp.FullAddress = &v
	}
	return &cp
}
