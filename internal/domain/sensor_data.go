package domain

import "time"

// SensorData 传感器读数（集合 "SensorData"，由外部写入）
type SensorData struct {
	ID             string    `json:"id" bson:"_id"`
	SensorID       string    `json:"sensorId" bson:"sensorId"`
	RoomID         string    `json:"roomId" bson:"roomId"`
	SensorDataType string    `json:"sensorDataType" bson:"sensorDataType"`
	SensorReading  string    `json:"sensorReading" bson:"sensorReading"`
	EventTimestamp time.Time `json:"eventTimestamp" bson:"eventTimestamp"`
}

// DesiredData 期望值（集合 "DesiredData"，由外部写入）
type DesiredData struct {
	ID           string `json:"id" bson:"_id"`
	SensorID     string `json:"sensorId" bson:"sensorId"`
	RoomID       string `json:"roomId" bson:"roomId"`
	DesiredValue string `json:"desiredValue" bson:"desiredValue"`
}
