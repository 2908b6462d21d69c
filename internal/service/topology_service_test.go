package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smarthotel-mr/internal/domain"
	"smarthotel-mr/internal/repository"
)

const (
	pathUpperTypes   = "api/v1.0/spaces?maxlevel=4&minlevel=1&includes=Types"
	pathRoomsTypes   = "api/v1.0/spaces?maxlevel=5&minlevel=5&includes=Types"
	pathRoomsValues  = "api/v1.0/spaces?maxlevel=5&minlevel=5&includes=Values,Types"
	pathTopLevel     = "api/v1.0/spaces?maxlevel=4&minlevel=1&includes=Properties,Types"
	pathBrandLevel   = "api/v1.0/spaces?maxlevel=2&minlevel=1&includes=Properties,Types"
	pathDevicesBrand = "api/v1.0/devices?spaceId=B&includes=Types,Sensors,SensorsTypes&traverse=Down"
)

func sp(id, parent, typ string) remoteSpace {
	return remoteSpace{ID: id, ParentSpaceID: parent, Name: id, FriendlyName: id + " friendly", Type: typ}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func dev(id, spaceID string) *domain.Device {
	return &domain.Device{ID: id, Name: id, SpaceID: spaceID}
}

// hotelFixture Tenant T -> Brand B -> Hotel H -> Floors F1/F2 -> Rooms R1/R2 (F1), R3 (F2)
// O 的父节点不存在，不在 T 的范围内
func hotelFixture(t *testing.T) *fakeFetcher {
	upper := []remoteSpace{
		sp("F1", "H", "Floor"),
		sp("T", "", "Tenant"),
		sp("B", "T", "HotelBrand"),
		sp("H", "B", "Hotel"),
		sp("F2", "H", "Floor"),
		sp("O", "X", "Hotel"),
	}
	rooms := []remoteSpace{
		sp("R1", "F1", "Room"),
		sp("R2", "F1", "Room"),
		sp("R3", "F2", "Room"),
		sp("F2", "H", "Floor"), // 重复 id，先出现的为准
	}
	devices := []*domain.Device{dev("d1", "R1"), dev("d2", "R3"), dev("d3", "R1"), dev("d4", "F1")}

	return newFakeFetcher().
		set(pathUpperTypes, mustJSON(t, upper)).
		set(pathRoomsTypes, mustJSON(t, rooms)).
		set(pathDevicesBrand, mustJSON(t, devices))
}

func newTestTopologyService(f RemoteFetcher) *topologyService {
	return NewTopologyService(f, zap.NewNop()).(*topologyService)
}

func collectIDs(spaces []*domain.Space, into map[string]*domain.Space) {
	for _, s := range spaces {
		into[s.ID] = s
		collectIDs(s.ChildSpaces, into)
	}
}

func TestGetSpaces_AssemblesTreeUnderTenant(t *testing.T) {
	f := hotelFixture(t)
	svc := newTestTopologyService(f)

	result, err := svc.GetSpaces(context.Background())
	require.NoError(t, err)

	// [T] 为单一非 Floor 根节点，返回其子空间
	require.Len(t, result, 1)
	brand := result[0]
	assert.Equal(t, "B", brand.ID)
	require.Len(t, brand.ChildSpaces, 1)
	hotel := brand.ChildSpaces[0]
	assert.Equal(t, "H", hotel.ID)
	require.Len(t, hotel.ChildSpaces, 2)
	f1, f2 := hotel.ChildSpaces[0], hotel.ChildSpaces[1]
	assert.Equal(t, "F1", f1.ID)
	assert.Equal(t, "F2", f2.ID)
	require.Len(t, f1.ChildSpaces, 2)
	assert.Equal(t, "R1", f1.ChildSpaces[0].ID)
	assert.Equal(t, "R2", f1.ChildSpaces[1].ID)

	// 设备按 spaceId 分配，保持顺序
	r1 := f1.ChildSpaces[0]
	require.Len(t, r1.Devices, 2)
	assert.Equal(t, "d1", r1.Devices[0].ID)
	assert.Equal(t, "d3", r1.Devices[1].ID)
	assert.Empty(t, f1.ChildSpaces[1].Devices)
	require.Len(t, f2.ChildSpaces, 1)
	require.Len(t, f2.ChildSpaces[0].Devices, 1)
	assert.Equal(t, "d2", f2.ChildSpaces[0].Devices[0].ID)
	require.Len(t, f1.Devices, 1)
	assert.Equal(t, "d4", f1.Devices[0].ID)

	// 设备只在品牌层拉取一次
	assert.Equal(t, 1, f.callCount(pathDevicesBrand))
}

func TestGetSpaces_DiscardsSpacesOutsideScope(t *testing.T) {
	svc := newTestTopologyService(hotelFixture(t))

	result, err := svc.GetSpaces(context.Background())
	require.NoError(t, err)

	all := map[string]*domain.Space{}
	collectIDs(result, all)
	assert.NotContains(t, all, "O")
	assert.NotContains(t, all, "T")
	for _, id := range []string{"B", "H", "F1", "F2", "R1", "R2", "R3"} {
		assert.Contains(t, all, id)
	}
}

func TestGetSpaces_PeerRootsAreNotUnwrapped(t *testing.T) {
	upper := []remoteSpace{
		sp("T", "", "Tenant"),
		sp("Z", "", "Campus"),
		sp("B", "T", "HotelBrand"),
	}
	f := newFakeFetcher().
		set(pathUpperTypes, mustJSON(t, upper)).
		set(pathRoomsTypes, "[]").
		set(pathDevicesBrand, "[]")

	result, err := newTestTopologyService(f).GetSpaces(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "T", result[0].ID)
	assert.Equal(t, "Z", result[1].ID)
	require.Len(t, result[0].ChildSpaces, 1)
}

func TestGetSpaces_FloorHighestFetchesPerFloor(t *testing.T) {
	upper := []remoteSpace{
		sp("F1", "H", "floor"),
		sp("F2", "H", "Floor"),
	}
	rooms := []remoteSpace{sp("R1", "F1", "Room"), sp("R2", "F2", "Room")}
	f := newFakeFetcher().
		set(pathUpperTypes, mustJSON(t, upper)).
		set(pathRoomsTypes, mustJSON(t, rooms)).
		set(devicesQuery("F1"), mustJSON(t, []*domain.Device{dev("d1", "R1")})).
		set(devicesQuery("F2"), mustJSON(t, []*domain.Device{dev("d2", "R2")}))

	result, err := newTestTopologyService(f).GetSpaces(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "d1", result[0].ChildSpaces[0].Devices[0].ID)
	assert.Equal(t, "d2", result[1].ChildSpaces[0].Devices[0].ID)
	assert.Equal(t, 1, f.callCount(devicesQuery("F1")))
	assert.Equal(t, 1, f.callCount(devicesQuery("F2")))
}

func TestGetSpaces_SingleFloorRootIsKept(t *testing.T) {
	f := newFakeFetcher().
		set(pathUpperTypes, mustJSON(t, []remoteSpace{sp("F1", "", "Floor")})).
		set(pathRoomsTypes, mustJSON(t, []remoteSpace{sp("R1", "F1", "Room")})).
		set(devicesQuery("F1"), "[]")

	result, err := newTestTopologyService(f).GetSpaces(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "F1", result[0].ID)
	require.Len(t, result[0].ChildSpaces, 1)
}

func TestGetSpaces_SingleRootWithoutChildrenReturnsEmpty(t *testing.T) {
	f := newFakeFetcher().
		set(pathUpperTypes, mustJSON(t, []remoteSpace{sp("H", "", "Hotel")})).
		set(pathRoomsTypes, "[]")

	result, err := newTestTopologyService(f).GetSpaces(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result)
}

func TestGetSpaces_NoCandidateReturnsEmpty(t *testing.T) {
	f := newFakeFetcher().
		set(pathUpperTypes, "[]").
		set(pathRoomsTypes, mustJSON(t, []remoteSpace{sp("R1", "F1", "Room")}))

	result, err := newTestTopologyService(f).GetSpaces(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result)
}

func TestGetSpaces_FirstEncounteredWins(t *testing.T) {
	upper := []remoteSpace{
		sp("B1", "T", "HotelBrand"),
		sp("B2", "", "HotelBrand"),
		sp("X", "", "Other"),
	}
	f := newFakeFetcher().
		set(pathUpperTypes, mustJSON(t, upper)).
		set(pathRoomsTypes, "[]").
		set(devicesQuery("B1"), "[]")

	// B1 的父节点 T 不在结果中，兄弟集合只有 B1 自己
	result, err := newTestTopologyService(f).GetSpaces(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Equal(t, 1, f.callCount(devicesQuery("B1")))
}

func TestGetSpaces_CyclicParentsTerminate(t *testing.T) {
	upper := []remoteSpace{
		sp("B", "C", "HotelBrand"),
		sp("C", "B", "Hotel"),
	}
	f := newFakeFetcher().
		set(pathUpperTypes, mustJSON(t, upper)).
		set(pathRoomsTypes, "[]").
		set(devicesQuery("B"), "[]")

	result, err := newTestTopologyService(f).GetSpaces(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "C", result[0].ID)
	assert.Empty(t, result[0].ChildSpaces)

	_, err = json.Marshal(result)
	assert.NoError(t, err)
}

func TestGetSpaces_RemoteFailureAborts(t *testing.T) {
	f := hotelFixture(t)
	delete(f.responses, pathDevicesBrand)

	result, err := newTestTopologyService(f).GetSpaces(context.Background())
	assert.Nil(t, result)
	var rf *RemoteFetchError
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, pathDevicesBrand, rf.Path)
}

func TestGetSpaces_UpperFetchFailure(t *testing.T) {
	_, err := newTestTopologyService(newFakeFetcher()).GetSpaces(context.Background())
	var rf *RemoteFetchError
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, pathUpperTypes, rf.Path)
}

func TestGetTopLevelAndBrandLevelSpaces(t *testing.T) {
	brand := sp("B", "T", "HotelBrand")
	brand.Properties = []remoteProperty{{Name: "ImagePath", Value: "brands/b.png"}}
	f := newFakeFetcher().
		set(pathTopLevel, mustJSON(t, []remoteSpace{sp("T", "", "Tenant"), brand})).
		set(pathBrandLevel, mustJSON(t, []remoteSpace{brand}))
	svc := newTestTopologyService(f)

	top, err := svc.GetTopLevelSpaces(context.Background())
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "", top[0].ParentSpaceID)
	assert.Equal(t, "brands/b.png", top[1].Properties["ImagePath"])
	assert.Empty(t, top[1].ChildSpaces)

	brands, err := svc.GetBrandLevelSpaces(context.Background())
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "B", brands[0].ID)
}

func TestConvertSpace_NullParentBecomesEmpty(t *testing.T) {
	var raw []remoteSpace
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"T","parentSpaceId":null,"type":"Tenant","typeId":3}]`), &raw))
	s := convertSpace(raw[0])
	assert.Equal(t, "", s.ParentSpaceID)
	assert.Equal(t, 3, s.TypeID)
	assert.NotNil(t, s.Properties)
}

func TestGetRoomSpaceTemperatureAlerts(t *testing.T) {
	upper := []remoteSpace{
		sp("T", "", "Tenant"),
		sp("B", "T", "HotelBrand"),
		sp("H", "B", "Hotel"),
		sp("F1", "H", "Floor"),
		sp("F2", "missing-hotel", "Floor"),
	}
	r1 := sp("R1", "F1", "Room")
	r1.Values = []domain.SpaceValue{{Type: "Temperature", Value: "21"}, {Type: "TemperatureAlert", Value: "Too hot"}}
	r2 := sp("R2", "F2", "Room")
	r2.Values = []domain.SpaceValue{{Type: "temperaturealert", Value: "Too cold"}}
	r3 := sp("R3", "F1", "Room")
	r3.Values = []domain.SpaceValue{{Type: "Motion", Value: "true"}}
	r4 := sp("R4", "gone", "Room")
	r4.Values = []domain.SpaceValue{{Type: "TemperatureAlert", Value: "orphan"}}
	r5 := sp("R5", "", "Room")
	r5.Values = []domain.SpaceValue{{Type: "TemperatureAlert", Value: "root"}}

	f := newFakeFetcher().
		set(pathUpperTypes, mustJSON(t, upper)).
		set(pathRoomsValues, mustJSON(t, []remoteSpace{r1, r2, r3, r4, r5}))

	alerts, err := newTestTopologyService(f).GetRoomSpaceTemperatureAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 4)

	assert.Equal(t, domain.SpaceAlert{SpaceID: "R1", Message: "Too hot", AncestorSpaceIDs: []string{"F1", "H", "B", "T"}}, alerts["R1"])
	// 祖先链在第一个找不到的 id 处截断（包含该 id）
	assert.Equal(t, []string{"F2", "missing-hotel"}, alerts["R2"].AncestorSpaceIDs)
	assert.Equal(t, "Too cold", alerts["R2"].Message)
	assert.Equal(t, []string{"gone"}, alerts["R4"].AncestorSpaceIDs)
	assert.NotNil(t, alerts["R5"].AncestorSpaceIDs)
	assert.Empty(t, alerts["R5"].AncestorSpaceIDs)
	assert.NotContains(t, alerts, "R3")
}

func TestGetRoomSpaceTemperatureAlerts_RemoteFailure(t *testing.T) {
	f := newFakeFetcher().set(pathUpperTypes, "[]")
	_, err := newTestTopologyService(f).GetRoomSpaceTemperatureAlerts(context.Background())
	var rf *RemoteFetchError
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, pathRoomsValues, rf.Path)
}

func TestGetAllDescendantDevicesBySpaceIdForSpace(t *testing.T) {
	d1 := dev("d1", "R1")
	d1.Sensors = []*domain.Sensor{{ID: "s1", DeviceID: "d1", DataType: "Temperature", SpaceID: "R1"}}
	f := newFakeFetcher().set(pathDevicesBrand, mustJSON(t, []*domain.Device{d1, dev("d2", "R2"), dev("d3", "R1")}))

	got, err := newTestTopologyService(f).GetAllDescendantDevicesBySpaceIdForSpace(context.Background(), "B")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, got["R1"], 2)
	assert.Equal(t, "d1", got["R1"][0].ID)
	assert.Equal(t, "d3", got["R1"][1].ID)
	require.Len(t, got["R1"][0].Sensors, 1)
	assert.Equal(t, "Temperature", got["R1"][0].Sensors[0].DataType)
	assert.Len(t, got["R2"], 1)
}

func TestBrandImagePath(t *testing.T) {
	brand := sp("B", "T", "HotelBrand")
	brand.Properties = []remoteProperty{{Name: "imagepath", Value: "brands/b.png"}}
	bare := sp("B2", "T", "HotelBrand")
	f := newFakeFetcher().set(pathBrandLevel, mustJSON(t, []remoteSpace{brand, bare}))
	svc := newTestTopologyService(f)

	p, err := svc.BrandImagePath(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, "brands/b.png", p)

	_, err = svc.BrandImagePath(context.Background(), "B2")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.BrandImagePath(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetAllDescendantDevices_EscapesSpaceID(t *testing.T) {
	const escaped = "api/v1.0/devices?spaceId=R1%26maxlevel%3D1+x&includes=Types,Sensors,SensorsTypes&traverse=Down"
	assert.Equal(t, escaped, devicesQuery("R1&maxlevel=1 x"))

	f := newFakeFetcher().set(escaped, mustJSON(t, []*domain.Device{dev("d1", "R1&maxlevel=1 x")}))
	got, err := newTestTopologyService(f).GetAllDescendantDevicesBySpaceIdForSpace(context.Background(), "R1&maxlevel=1 x")
	require.NoError(t, err)
	assert.Len(t, got["R1&maxlevel=1 x"], 1)
	assert.Equal(t, 1, f.callCount(escaped))
}
