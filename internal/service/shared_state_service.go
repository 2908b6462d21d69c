package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"smarthotel-mr/internal/domain"
	"smarthotel-mr/internal/events"
	"smarthotel-mr/internal/repository"
)

// SharedStateUpdate PUT /v1/sharedstate/{id} 请求体
type SharedStateUpdate struct {
	CurrentSelectedSpace string          `json:"currentSelectedSpace"`
	ToggledSensorPanels  map[string]bool `json:"toggledSensorPanels"`
}

// SharedStateService 多端共享状态（id 与锚点集合 id 相同）
type SharedStateService interface {
	Get(ctx context.Context, id string) (*domain.SharedState, error)
	Update(ctx context.Context, id string, update SharedStateUpdate) (*domain.SharedState, error)
	TogglePanel(ctx context.Context, id, deviceID string, toggled bool) (*domain.SharedState, error)
}

type sharedStateService struct {
	store     repository.DocumentStore[domain.SharedState]
	publisher events.Publisher
	now       func() time.Time
	logger    *zap.Logger
}

// NewSharedStateService now 为 nil 时使用 time.Now
func NewSharedStateService(store repository.DocumentStore[domain.SharedState], publisher events.Publisher, now func() time.Time, logger *zap.Logger) SharedStateService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	return &sharedStateService{store: store, publisher: publisher, now: now, logger: logger}
}

func (s *sharedStateService) Get(ctx context.Context, id string) (*domain.SharedState, error) {
	if id == "" {
		return nil, fmt.Errorf("shared state id is required: %w", ErrInvalidArgument)
	}
	state, err := s.store.FindOne(ctx, repository.ByID(id))
	if err != nil {
		return nil, fmt.Errorf("shared state %s: %w", id, err)
	}
	return &state, nil
}

// Update 不存在时创建
func (s *sharedStateService) Update(ctx context.Context, id string, update SharedStateUpdate) (*domain.SharedState, error) {
	if id == "" {
		return nil, fmt.Errorf("shared state id is required: %w", ErrInvalidArgument)
	}
	now := s.now().UTC()

	state, err := s.store.FindOne(ctx, repository.ByID(id))
	switch {
	case repository.IsNotFound(err):
		state = domain.SharedState{ID: id, CreatedAt: now}
	case err != nil:
		return nil, fmt.Errorf("failed to load shared state %s: %w", id, err)
	}

	state.CurrentSelectedSpace = update.CurrentSelectedSpace
	state.ToggledSensorPanels = update.ToggledSensorPanels
	if state.ToggledSensorPanels == nil {
		state.ToggledSensorPanels = map[string]bool{}
	}
	state.UpdatedAt = now

	return s.save(ctx, &state)
}

func (s *sharedStateService) TogglePanel(ctx context.Context, id, deviceID string, toggled bool) (*domain.SharedState, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required: %w", ErrInvalidArgument)
	}
	state, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if state.ToggledSensorPanels == nil {
		state.ToggledSensorPanels = map[string]bool{}
	}
	state.ToggledSensorPanels[deviceID] = toggled
	state.UpdatedAt = s.now().UTC()

	return s.save(ctx, state)
}

func (s *sharedStateService) save(ctx context.Context, state *domain.SharedState) (*domain.SharedState, error) {
	if err := s.store.ReplaceOne(ctx, repository.ByID(state.ID), *state); err != nil {
		return nil, fmt.Errorf("failed to save shared state %s: %w", state.ID, err)
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(events.SharedStateUpdated, state.ID, state)); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("type", events.SharedStateUpdated),
			zap.String("anchor_set_id", state.ID),
			zap.Error(err),
		)
	}
	return state, nil
}
