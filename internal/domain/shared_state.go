package domain

import "time"

// SharedState 多端共享的 UI 状态（集合 "SharedState"）
type SharedState struct {
	ID                   string          `json:"id" bson:"_id"`
	CurrentSelectedSpace string          `json:"currentSelectedSpace" bson:"currentSelectedSpace"`
	ToggledSensorPanels  map[string]bool `json:"toggledSensorPanels" bson:"toggledSensorPanels"` // deviceId -> 展开
	CreatedAt            time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt" bson:"updatedAt"`
}
