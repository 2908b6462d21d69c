package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smarthotel-mr/internal/domain"
	"smarthotel-mr/internal/events"
	"smarthotel-mr/internal/repository"
)

// AnchorSetService 锚点集合服务
// 每个集合最多一个 Virtual 锚点，Physical 锚点按 id 去重
type AnchorSetService interface {
	CreateAnchorSet(ctx context.Context, name string) (*domain.AnchorSet, error)
	GetAllAnchorSets(ctx context.Context) ([]domain.AnchorSet, error)
	GetAnchorSetSummaries(ctx context.Context) ([]domain.AnchorSetSummary, error)
	GetVirtualAnchorSet(ctx context.Context, anchorSetID string) (*domain.AnchorSet, error)
	GetPhysicalAnchorSet(ctx context.Context, anchorSetID string) (*domain.AnchorSet, error)
	CreateVirtualAnchor(ctx context.Context, anchorSetID, anchorID string) (*domain.AnchorSet, error)
	CreatePhysicalAnchor(ctx context.Context, anchorSetID, anchorID, deviceID string) (*domain.AnchorSet, error)
	DeleteAnchorSet(ctx context.Context, anchorSetID string) error
	DeleteAnchor(ctx context.Context, anchorSetID, anchorID string) (*domain.AnchorSet, error)
}

// anchorSetService 实现
// 修改操作是读-改-整体写回，同一集合的并发写可能丢失更新
type anchorSetService struct {
	store     repository.DocumentStore[domain.AnchorSet]
	publisher events.Publisher
	logger    *zap.Logger
}

// NewAnchorSetService 创建锚点集合服务
func NewAnchorSetService(store repository.DocumentStore[domain.AnchorSet], publisher events.Publisher, logger *zap.Logger) AnchorSetService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &anchorSetService{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *anchorSetService) CreateAnchorSet(ctx context.Context, name string) (*domain.AnchorSet, error) {
	set := domain.AnchorSet{
		ID:      uuid.NewString(),
		Name:    name,
		Anchors: []domain.Anchor{},
	}
	if _, err := s.store.InsertOne(ctx, set); err != nil {
		return nil, fmt.Errorf("failed to create anchor set: %w", err)
	}

	s.logger.Info("Anchor set created", zap.String("anchor_set_id", set.ID), zap.String("name", name))
	s.publish(ctx, events.NewEvent(events.AnchorSetCreated, set.ID, set))
	return &set, nil
}

func (s *anchorSetService) GetAllAnchorSets(ctx context.Context) ([]domain.AnchorSet, error) {
	sets, err := s.store.Find(ctx, repository.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list anchor sets: %w", err)
	}
	for i := range sets {
		if sets[i].Anchors == nil {
			sets[i].Anchors = []domain.Anchor{}
		}
	}
	return sets, nil
}

// GetAnchorSetSummaries 列表摘要 {id, name, numberOfAnchors}
func (s *anchorSetService) GetAnchorSetSummaries(ctx context.Context) ([]domain.AnchorSetSummary, error) {
	sets, err := s.GetAllAnchorSets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AnchorSetSummary, 0, len(sets))
	for _, set := range sets {
		out = append(out, domain.AnchorSetSummary{
			ID:              set.ID,
			Name:            set.Name,
			NumberOfAnchors: len(set.Anchors),
		})
	}
	return out, nil
}

func (s *anchorSetService) GetVirtualAnchorSet(ctx context.Context, anchorSetID string) (*domain.AnchorSet, error) {
	return s.getFiltered(ctx, anchorSetID, domain.AnchorModeVirtual)
}

func (s *anchorSetService) GetPhysicalAnchorSet(ctx context.Context, anchorSetID string) (*domain.AnchorSet, error) {
	return s.getFiltered(ctx, anchorSetID, domain.AnchorModePhysical)
}

func (s *anchorSetService) getFiltered(ctx context.Context, anchorSetID string, mode domain.AnchorMode) (*domain.AnchorSet, error) {
	set, err := s.load(ctx, anchorSetID)
	if err != nil {
		return nil, err
	}
	set.Anchors = filterAnchors(set.Anchors, func(a domain.Anchor) bool { return a.Mode == mode })
	return set, nil
}

func (s *anchorSetService) CreateVirtualAnchor(ctx context.Context, anchorSetID, anchorID string) (*domain.AnchorSet, error) {
	set, err := s.load(ctx, anchorSetID)
	if err != nil {
		return nil, err
	}

	// 同 id 的旧锚点以及任何已有的 Virtual 锚点都被替换
	set.Anchors = filterAnchors(set.Anchors, func(a domain.Anchor) bool {
		return a.ID != anchorID && a.Mode != domain.AnchorModeVirtual
	})
	anchor := domain.Anchor{ID: anchorID, Mode: domain.AnchorModeVirtual}
	set.Anchors = append(set.Anchors, anchor)

	if err := s.save(ctx, set); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.AnchorUpserted, set.ID, anchor))
	return set, nil
}

func (s *anchorSetService) CreatePhysicalAnchor(ctx context.Context, anchorSetID, anchorID, deviceID string) (*domain.AnchorSet, error) {
	set, err := s.load(ctx, anchorSetID)
	if err != nil {
		return nil, err
	}

	// 同 id（任意模式）先移除，新锚点追加到末尾
	set.Anchors = filterAnchors(set.Anchors, func(a domain.Anchor) bool { return a.ID != anchorID })
	anchor := domain.Anchor{ID: anchorID, Mode: domain.AnchorModePhysical, DeviceID: deviceID}
	set.Anchors = append(set.Anchors, anchor)

	if err := s.save(ctx, set); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.AnchorUpserted, set.ID, anchor))
	return set, nil
}

// DeleteAnchorSet 幂等：集合不存在不报错
func (s *anchorSetService) DeleteAnchorSet(ctx context.Context, anchorSetID string) error {
	if err := s.store.DeleteOne(ctx, repository.ByID(anchorSetID)); err != nil {
		return fmt.Errorf("failed to delete anchor set %s: %w", anchorSetID, err)
	}
	s.logger.Info("Anchor set deleted", zap.String("anchor_set_id", anchorSetID))
	s.publish(ctx, events.NewEvent(events.AnchorSetDeleted, anchorSetID, nil))
	return nil
}

func (s *anchorSetService) DeleteAnchor(ctx context.Context, anchorSetID, anchorID string) (*domain.AnchorSet, error) {
	set, err := s.load(ctx, anchorSetID)
	if err != nil {
		return nil, err
	}

	set.Anchors = filterAnchors(set.Anchors, func(a domain.Anchor) bool { return a.ID != anchorID })
	if err := s.save(ctx, set); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.AnchorDeleted, set.ID, map[string]string{"anchorId": anchorID}))
	return set, nil
}

// load 未找到返回 *NoAnchorSetError
func (s *anchorSetService) load(ctx context.Context, anchorSetID string) (*domain.AnchorSet, error) {
	set, err := s.store.FindOne(ctx, repository.ByID(anchorSetID))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NoAnchorSetError{AnchorSetID: anchorSetID}
		}
		return nil, fmt.Errorf("failed to load anchor set %s: %w", anchorSetID, err)
	}
	if set.Anchors == nil {
		set.Anchors = []domain.Anchor{}
	}
	return &set, nil
}

func (s *anchorSetService) save(ctx context.Context, set *domain.AnchorSet) error {
	if err := s.store.ReplaceOne(ctx, repository.ByID(set.ID), *set); err != nil {
		return fmt.Errorf("failed to save anchor set %s: %w", set.ID, err)
	}
	return nil
}

func (s *anchorSetService) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("type", ev.Type),
			zap.String("anchor_set_id", ev.SubjectID),
			zap.Error(err),
		)
	}
}

// filterAnchors 保留 keep 为 true 的锚点，结果非 nil
func filterAnchors(anchors []domain.Anchor, keep func(domain.Anchor) bool) []domain.Anchor {
	out := make([]domain.Anchor, 0, len(anchors))
	for _, a := range anchors {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
