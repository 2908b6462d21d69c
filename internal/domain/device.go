package domain

// Device Digital Twins 设备
type Device struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	HardwareID string    `json:"hardwareId"`
	TypeID     int       `json:"typeId"`
	Type       string    `json:"type,omitempty"`
	Subtype    string    `json:"subtype"`
	SubtypeID  int       `json:"subtypeId"`
	SpaceID    string    `json:"spaceId"`
	Status     string    `json:"status"`
	Sensors    []*Sensor `json:"sensors"`
}

// Sensor 设备传感器
type Sensor struct {
	ID            string `json:"id"`
	DeviceID      string `json:"deviceId"`
	DataTypeID    int    `json:"dataTypeId"`
	DataType      string `json:"dataType"`
	DataSubtypeID int    `json:"dataSubtypeId"`
	DataSubtype   string `json:"dataSubtype"`
	TypeID        int    `json:"typeId"`
	Type          string `json:"type"`
	SpaceID       string `json:"spaceId"`
}
