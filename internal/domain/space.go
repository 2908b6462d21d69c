package domain

// 空间类型（Digital Twins Space.type）
const (
	SpaceTypeTenant     = "Tenant"
	SpaceTypeHotelBrand = "HotelBrand"
	SpaceTypeHotel      = "Hotel"
	SpaceTypeFloor      = "Floor"
	SpaceTypeRoom       = "Room"
)

// 空间值类型
const (
	ValueTypeTemperatureAlert = "TemperatureAlert"
)

// 空间属性名
const (
	PropertyImagePath = "ImagePath"
)

// Space 拓扑空间节点
// ChildSpaces / Devices 只在组装后的拓扑中出现
type Space struct {
	ID            string            `json:"id"`
	ParentSpaceID string            `json:"parentSpaceId"` // 顶层为 ""
	Name          string            `json:"name"`
	FriendlyName  string            `json:"friendlyName"`
	Type          string            `json:"type"`
	TypeID        int               `json:"typeId"`
	Subtype       string            `json:"subtype"`
	SubtypeID     int               `json:"subtypeId"`
	Properties    map[string]string `json:"properties"`
	ChildSpaces   []*Space          `json:"childSpaces"`
	Values        []SpaceValue      `json:"values,omitempty"`
	Devices       []*Device         `json:"devices"`
}

// SpaceValue 空间当前值（如 TemperatureAlert）
type SpaceValue struct {
	Type           string `json:"type"`
	Value          string `json:"value"`
	Timestamp      string `json:"timestamp,omitempty"`
	HistoricalData string `json:"historicalData,omitempty"`
}

// SpaceAlert 房间温度告警
// AncestorSpaceIDs 由近到远，最后一项为能追溯到的最远祖先
type SpaceAlert struct {
	SpaceID          string   `json:"spaceId"`
	Message          string   `json:"message"`
	AncestorSpaceIDs []string `json:"ancestorSpaceIds"`
}
