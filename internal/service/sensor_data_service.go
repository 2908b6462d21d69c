package service

import (
	"context"
	"fmt"

	"smarthotel-mr/internal/domain"
	"smarthotel-mr/internal/repository"
)

// SensorDataService 房间传感器最新读数
type SensorDataService interface {
	// Latest 每个房间每种 sensorDataType 最新的一条（平铺列表）
	Latest(ctx context.Context, roomIDs []string) ([]domain.SensorData, error)
}

// DesiredDataService 传感器期望值
type DesiredDataService interface {
	Find(ctx context.Context, sensorIDs []string) ([]domain.DesiredData, error)
}

type sensorDataService struct {
	store repository.DocumentStore[domain.SensorData]
}

func NewSensorDataService(store repository.DocumentStore[domain.SensorData]) SensorDataService {
	return &sensorDataService{store: store}
}

func (s *sensorDataService) Latest(ctx context.Context, roomIDs []string) ([]domain.SensorData, error) {
	roomIDs = compact(roomIDs)
	if len(roomIDs) == 0 {
		return nil, fmt.Errorf("room ids are required: %w", ErrInvalidArgument)
	}
	readings, err := s.store.FindIn(ctx, "roomId", roomIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor data: %w", err)
	}

	type key struct{ room, dataType string }
	latest := make(map[key]int) // -> index in out
	out := make([]domain.SensorData, 0, len(readings))
	for _, r := range readings {
		k := key{r.RoomID, r.SensorDataType}
		if i, ok := latest[k]; ok {
			if r.EventTimestamp.After(out[i].EventTimestamp) {
				out[i] = r
			}
			continue
		}
		latest[k] = len(out)
		out = append(out, r)
	}
	return out, nil
}

type desiredDataService struct {
	store repository.DocumentStore[domain.DesiredData]
}

func NewDesiredDataService(store repository.DocumentStore[domain.DesiredData]) DesiredDataService {
	return &desiredDataService{store: store}
}

func (s *desiredDataService) Find(ctx context.Context, sensorIDs []string) ([]domain.DesiredData, error) {
	sensorIDs = compact(sensorIDs)
	if len(sensorIDs) == 0 {
		return nil, fmt.Errorf("sensor ids are required: %w", ErrInvalidArgument)
	}
	out, err := s.store.FindIn(ctx, "sensorId", sensorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query desired data: %w", err)
	}
	return out, nil
}

// compact 去掉空串
func compact(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
