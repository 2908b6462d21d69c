package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"smarthotel-mr/internal/domain"
	"smarthotel-mr/internal/repository"
)

// Digital Twins 管理 API 路径
const (
	apiPrefix        = "api/v1.0/"
	spacesPath       = apiPrefix + "spaces"
	devicesPath      = apiPrefix + "devices"
	levelsTopFilter  = "maxlevel=4&minlevel=1"
	levelsBrand      = "maxlevel=2&minlevel=1"
	levelsRoomFilter = "maxlevel=5&minlevel=5"
	traverseDown     = "traverse=Down"

	includeProperties   = "Properties"
	includeTypes        = "Types"
	includeValues       = "Values"
	includeSensors      = "Sensors"
	includeSensorsTypes = "SensorsTypes"
)

// RemoteFetcher 远程空间/设备查询
// 非 2xx 返回 *RemoteFetchError
type RemoteFetcher interface {
	GetAsString(ctx context.Context, path string) (string, error)
}

// TopologyService 空间拓扑服务
type TopologyService interface {
	GetTopLevelSpaces(ctx context.Context) ([]*domain.Space, error)
	GetBrandLevelSpaces(ctx context.Context) ([]*domain.Space, error)
	// GetSpaces 以最高层级空间为范围组装的空间树（含房间设备）
	GetSpaces(ctx context.Context) ([]*domain.Space, error)
	GetRoomSpaceTemperatureAlerts(ctx context.Context) (map[string]domain.SpaceAlert, error)
	GetAllDescendantDevicesBySpaceIdForSpace(ctx context.Context, spaceID string) (map[string][]*domain.Device, error)
	// BrandImagePath 品牌空间的 ImagePath 属性
	BrandImagePath(ctx context.Context, spaceID string) (string, error)
	// ExportTopology GetSpaces 结果导出为 xlsx
	ExportTopology(ctx context.Context) ([]byte, error)
}

type topologyService struct {
	fetcher RemoteFetcher
	logger  *zap.Logger
}

// NewTopologyService 创建拓扑服务
func NewTopologyService(fetcher RemoteFetcher, logger *zap.Logger) TopologyService {
	return &topologyService{fetcher: fetcher, logger: logger}
}

// remoteSpace Digital Twins 空间（properties 为列表）
type remoteSpace struct {
	ID            string              `json:"id"`
	ParentSpaceID string              `json:"parentSpaceId"`
	Name          string              `json:"name"`
	FriendlyName  string              `json:"friendlyName"`
	Type          string              `json:"type"`
	TypeID        int                 `json:"typeId"`
	Subtype       string              `json:"subtype"`
	SubtypeID     int                 `json:"subtypeId"`
	Properties    []remoteProperty    `json:"properties"`
	Values        []domain.SpaceValue `json:"values"`
}

type remoteProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func spacesQuery(levels string, includes ...string) string {
	return spacesPath + "?" + levels + "&includes=" + strings.Join(includes, ",")
}

func devicesQuery(spaceID string) string {
	return devicesPath + "?spaceId=" + url.QueryEscape(spaceID) + "&includes=" +
		strings.Join([]string{includeTypes, includeSensors, includeSensorsTypes}, ",") + "&" + traverseDown
}

func (s *topologyService) GetTopLevelSpaces(ctx context.Context) ([]*domain.Space, error) {
	return s.fetchSpaces(ctx, spacesQuery(levelsTopFilter, includeProperties, includeTypes))
}

func (s *topologyService) GetBrandLevelSpaces(ctx context.Context) ([]*domain.Space, error) {
	return s.fetchSpaces(ctx, spacesQuery(levelsBrand, includeProperties, includeTypes))
}

func (s *topologyService) GetSpaces(ctx context.Context) ([]*domain.Space, error) {
	upper, err := s.fetchRemoteSpaces(ctx, spacesQuery(levelsTopFilter, includeTypes))
	if err != nil {
		return nil, err
	}
	rooms, err := s.fetchRemoteSpaces(ctx, spacesQuery(levelsRoomFilter, includeTypes))
	if err != nil {
		return nil, err
	}

	// 按 id 合并，先出现的为准
	seen := make(map[string]struct{}, len(upper)+len(rooms))
	all := make([]*domain.Space, 0, len(upper)+len(rooms))
	for _, raw := range append(upper, rooms...) {
		if _, dup := seen[raw.ID]; dup {
			continue
		}
		seen[raw.ID] = struct{}{}
		all = append(all, convertSpace(raw))
	}

	highest := highestLevelSpace(all)
	result := []*domain.Space{}
	if highest != nil {
		byParent := make(map[string][]*domain.Space)
		for _, sp := range all {
			byParent[sp.ParentSpaceID] = append(byParent[sp.ParentSpaceID], sp)
		}

		deviceType := domain.SpaceTypeHotelBrand
		if strings.EqualFold(highest.Type, domain.SpaceTypeFloor) {
			deviceType = domain.SpaceTypeFloor
		}

		result = byParent[highest.ParentSpaceID]
		visited := make(map[string]bool, len(all))
		if err := s.buildHierarchy(ctx, result, byParent, nil, deviceType, visited); err != nil {
			return nil, err
		}
	}

	// 单一非 Floor 根节点时直接返回其子空间
	if len(result) == 1 && !strings.EqualFold(result[0].Type, domain.SpaceTypeFloor) {
		result = result[0].ChildSpaces
	}
	if result == nil {
		result = []*domain.Space{}
	}

	s.logger.Debug("Topology assembled",
		zap.Int("space_count", len(all)),
		zap.Int("root_count", len(result)),
	)
	return result, nil
}

// buildHierarchy 自上而下挂载子空间与设备
// 设备在第一次遇到 deviceType 空间时拉取，并向下传递给子树
func (s *topologyService) buildHierarchy(
	ctx context.Context,
	spaces []*domain.Space,
	byParent map[string][]*domain.Space,
	devicesBySpace map[string][]*domain.Device,
	deviceType string,
	visited map[string]bool,
) error {
	for _, sp := range spaces {
		if visited[sp.ID] {
			continue
		}
		visited[sp.ID] = true

		devices := devicesBySpace
		if len(devices) == 0 && strings.EqualFold(sp.Type, deviceType) {
			fetched, err := s.GetAllDescendantDevicesBySpaceIdForSpace(ctx, sp.ID)
			if err != nil {
				return err
			}
			devices = fetched
		}
		if ds, ok := devices[sp.ID]; ok {
			sp.Devices = append(sp.Devices, ds...)
		}

		var children []*domain.Space
		for _, c := range byParent[sp.ID] {
			if !visited[c.ID] {
				children = append(children, c)
			}
		}
		if len(children) == 0 {
			continue
		}
		sp.ChildSpaces = append(sp.ChildSpaces, children...)
		if err := s.buildHierarchy(ctx, children, byParent, devices, deviceType, visited); err != nil {
			return err
		}
	}
	return nil
}

// highestLevelSpace Tenant > HotelBrand > Hotel > Floor，各类型取第一个出现的
func highestLevelSpace(spaces []*domain.Space) *domain.Space {
	priority := []string{
		domain.SpaceTypeTenant,
		domain.SpaceTypeHotelBrand,
		domain.SpaceTypeHotel,
		domain.SpaceTypeFloor,
	}
	first := make([]*domain.Space, len(priority))
	for _, sp := range spaces {
		for i, t := range priority {
			if first[i] == nil && strings.EqualFold(sp.Type, t) {
				first[i] = sp
			}
		}
	}
	for _, sp := range first {
		if sp != nil {
			return sp
		}
	}
	return nil
}

func (s *topologyService) GetRoomSpaceTemperatureAlerts(ctx context.Context) (map[string]domain.SpaceAlert, error) {
	upper, err := s.fetchRemoteSpaces(ctx, spacesQuery(levelsTopFilter, includeTypes))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]remoteSpace, len(upper))
	for _, sp := range upper {
		byID[sp.ID] = sp
	}

	rooms, err := s.fetchRemoteSpaces(ctx, spacesQuery(levelsRoomFilter, includeValues, includeTypes))
	if err != nil {
		return nil, err
	}

	alerts := make(map[string]domain.SpaceAlert)
	for _, room := range rooms {
		for _, v := range room.Values {
			if !strings.EqualFold(v.Type, domain.ValueTypeTemperatureAlert) {
				continue
			}
			alerts[room.ID] = domain.SpaceAlert{
				SpaceID:          room.ID,
				Message:          v.Value,
				AncestorSpaceIDs: ancestorSpaceIDs(room.ParentSpaceID, byID),
			}
			break
		}
	}
	return alerts, nil
}

// ancestorSpaceIDs 沿 parentSpaceId 向上，遇到映射中没有的 id（包含该 id）即停止
func ancestorSpaceIDs(parentID string, byID map[string]remoteSpace) []string {
	ids := []string{}
	seen := map[string]bool{}
	for strings.TrimSpace(parentID) != "" && !seen[parentID] {
		seen[parentID] = true
		ids = append(ids, parentID)
		parent, ok := byID[parentID]
		if !ok {
			break
		}
		parentID = parent.ParentSpaceID
	}
	return ids
}

func (s *topologyService) GetAllDescendantDevicesBySpaceIdForSpace(ctx context.Context, spaceID string) (map[string][]*domain.Device, error) {
	path := devicesQuery(spaceID)
	body, err := s.fetcher.GetAsString(ctx, path)
	if err != nil {
		s.logger.Error("Failed to fetch devices", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	var devices []*domain.Device
	if err := json.Unmarshal([]byte(body), &devices); err != nil {
		return nil, fmt.Errorf("failed to decode devices for space %s: %w", spaceID, err)
	}

	out := make(map[string][]*domain.Device)
	for _, d := range devices {
		if d == nil {
			continue
		}
		out[d.SpaceID] = append(out[d.SpaceID], d)
	}
	return out, nil
}

func (s *topologyService) BrandImagePath(ctx context.Context, spaceID string) (string, error) {
	brands, err := s.GetBrandLevelSpaces(ctx)
	if err != nil {
		return "", err
	}
	for _, sp := range brands {
		if sp.ID != spaceID {
			continue
		}
		for name, value := range sp.Properties {
			if strings.EqualFold(name, domain.PropertyImagePath) && value != "" {
				return value, nil
			}
		}
		return "", fmt.Errorf("space %s has no image path: %w", spaceID, repository.ErrNotFound)
	}
	return "", fmt.Errorf("brand space %s: %w", spaceID, repository.ErrNotFound)
}

func (s *topologyService) fetchSpaces(ctx context.Context, path string) ([]*domain.Space, error) {
	raw, err := s.fetchRemoteSpaces(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Space, 0, len(raw))
	for _, r := range raw {
		out = append(out, convertSpace(r))
	}
	return out, nil
}

func (s *topologyService) fetchRemoteSpaces(ctx context.Context, path string) ([]remoteSpace, error) {
	s.logger.Debug("Fetching spaces", zap.String("path", path))
	body, err := s.fetcher.GetAsString(ctx, path)
	if err != nil {
		s.logger.Error("Failed to fetch spaces", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	var spaces []remoteSpace
	if err := json.Unmarshal([]byte(body), &spaces); err != nil {
		return nil, fmt.Errorf("failed to decode spaces from %s: %w", path, err)
	}
	return spaces, nil
}

// convertSpace properties 列表转为 name -> value
func convertSpace(r remoteSpace) *domain.Space {
	props := make(map[string]string, len(r.Properties))
	for _, p := range r.Properties {
		props[p.Name] = p.Value
	}
	return &domain.Space{
		ID:            r.ID,
		ParentSpaceID: r.ParentSpaceID,
		Name:          r.Name,
		FriendlyName:  r.FriendlyName,
		Type:          r.Type,
		TypeID:        r.TypeID,
		Subtype:       r.Subtype,
		SubtypeID:     r.SubtypeID,
		Properties:    props,
		ChildSpaces:   []*domain.Space{},
		Values:        r.Values,
		Devices:       []*domain.Device{},
	}
}
