package domain

// AnchorMode 锚点模式
type AnchorMode string

const (
	AnchorModeVirtual  AnchorMode = "Virtual"  // 虚拟锚点（每个集合最多一个）
	AnchorModePhysical AnchorMode = "Physical" // 物理锚点（绑定设备）
)

// Anchor 空间锚点
type Anchor struct {
	ID       string     `json:"id" bson:"id"`                                 // 由客户端提供，集合内唯一
	Mode     AnchorMode `json:"mode" bson:"mode"`                             // Virtual / Physical
	DeviceID string     `json:"deviceId,omitempty" bson:"deviceId,omitempty"` // Virtual 时为空
}

// AnchorSet 锚点集合领域模型（集合 "AnchorSet"）
type AnchorSet struct {
	ID      string   `json:"id" bson:"_id"`
	Name    string   `json:"name" bson:"name"`
	Anchors []Anchor `json:"anchors" bson:"anchors"` // 始终非 nil
}

// AnchorSetSummary 列表摘要（GET /v1/anchorsets/summary）
type AnchorSetSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	NumberOfAnchors int    `json:"numberOfAnchors"`
}
