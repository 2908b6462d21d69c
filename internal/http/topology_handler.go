package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"smarthotel-mr/internal/service"
)

const topologyPath = "/v1/topology"

// CacheInvalidator 拓扑缓存（TOPOLOGY_CACHE_TTL > 0 时存在）
type CacheInvalidator interface {
	Invalidate(ctx context.Context) (int, error)
}

// TopologyHandler /v1/topology
type TopologyHandler struct {
	svc    service.TopologyService
	cache  CacheInvalidator // 可为 nil
	logger *zap.Logger
}

func NewTopologyHandler(svc service.TopologyService, cache CacheInvalidator, logger *zap.Logger) *TopologyHandler {
	return &TopologyHandler{svc: svc, cache: cache, logger: logger}
}

func (h *TopologyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == topologyPath {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetSpaces(w, r)
		return
	}

	parts := pathParts(r.URL.Path, topologyPath+"/")
	switch {
	case len(parts) == 1 && parts[0] == "toplevel" && r.Method == http.MethodGet:
		h.GetTopLevelSpaces(w, r)
	case len(parts) == 1 && parts[0] == "brands" && r.Method == http.MethodGet:
		h.GetBrandLevelSpaces(w, r)
	case len(parts) == 3 && parts[0] == "brands" && parts[2] == "imagepath" && r.Method == http.MethodGet:
		h.GetBrandImagePath(w, r, parts[1])
	case len(parts) == 1 && parts[0] == "alerts" && r.Method == http.MethodGet:
		h.GetAlerts(w, r)
	case len(parts) == 2 && parts[0] == "devices" && r.Method == http.MethodGet:
		h.GetDevices(w, r, parts[1])
	case len(parts) == 1 && parts[0] == "export" && r.Method == http.MethodGet:
		h.Export(w, r)
	case len(parts) == 1 && parts[0] == "cache" && r.Method == http.MethodDelete:
		h.InvalidateCache(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *TopologyHandler) GetSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := h.svc.GetSpaces(r.Context())
	if err != nil {
		writeError(w, h.logger, "GetSpaces", err)
		return
	}
	writeJSON(w, http.StatusOK, spaces)
}

func (h *TopologyHandler) GetTopLevelSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := h.svc.GetTopLevelSpaces(r.Context())
	if err != nil {
		writeError(w, h.logger, "GetTopLevelSpaces", err)
		return
	}
	writeJSON(w, http.StatusOK, spaces)
}

func (h *TopologyHandler) GetBrandLevelSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := h.svc.GetBrandLevelSpaces(r.Context())
	if err != nil {
		writeError(w, h.logger, "GetBrandLevelSpaces", err)
		return
	}
	writeJSON(w, http.StatusOK, spaces)
}

func (h *TopologyHandler) GetBrandImagePath(w http.ResponseWriter, r *http.Request, spaceID string) {
	p, err := h.svc.BrandImagePath(r.Context(), spaceID)
	if err != nil {
		writeError(w, h.logger, "BrandImagePath", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"spaceId": spaceID, "imagePath": p})
}

func (h *TopologyHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.GetRoomSpaceTemperatureAlerts(r.Context())
	if err != nil {
		writeError(w, h.logger, "GetRoomSpaceTemperatureAlerts", err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *TopologyHandler) GetDevices(w http.ResponseWriter, r *http.Request, spaceID string) {
	devices, err := h.svc.GetAllDescendantDevicesBySpaceIdForSpace(r.Context(), spaceID)
	if err != nil {
		writeError(w, h.logger, "GetAllDescendantDevices", err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (h *TopologyHandler) Export(w http.ResponseWriter, r *http.Request) {
	excelData, err := h.svc.ExportTopology(r.Context())
	if err != nil {
		writeError(w, h.logger, "ExportTopology", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=topology.xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(excelData)
}

func (h *TopologyHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	n, err := h.cache.Invalidate(r.Context())
	if err != nil {
		writeError(w, h.logger, "InvalidateTopologyCache", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int{"deleted": n}))
}
