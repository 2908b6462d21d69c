package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"smarthotel-mr/internal/service"
)

const anchorSetsPath = "/v1/anchorsets"

// AnchorSetHandler /v1/anchorsets
type AnchorSetHandler struct {
	svc    service.AnchorSetService
	logger *zap.Logger
}

func NewAnchorSetHandler(svc service.AnchorSetService, logger *zap.Logger) *AnchorSetHandler {
	return &AnchorSetHandler{svc: svc, logger: logger}
}

// ServeHTTP 路由分发
//
//	GET    /v1/anchorsets
//	POST   /v1/anchorsets                         body: "name"
//	GET    /v1/anchorsets/virtual/{id}
//	PUT    /v1/anchorsets/virtual/{id}/{anchorId}
//	GET    /v1/anchorsets/physical/{id}
//	PUT    /v1/anchorsets/physical/{id}/{anchorId} body: "deviceId"
//	DELETE /v1/anchorsets/{id}
//	DELETE /v1/anchorsets/{id}/{anchorId}
func (h *AnchorSetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == anchorSetsPath {
		switch r.Method {
		case http.MethodGet:
			h.List(w, r)
		case http.MethodPost:
			h.Create(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	parts := pathParts(r.URL.Path, anchorSetsPath+"/")
	switch {
	case len(parts) == 2 && parts[0] == "virtual" && r.Method == http.MethodGet:
		h.GetVirtual(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "virtual" && r.Method == http.MethodPut:
		h.CreateVirtualAnchor(w, r, parts[1], parts[2])
	case len(parts) == 2 && parts[0] == "physical" && r.Method == http.MethodGet:
		h.GetPhysical(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "physical" && r.Method == http.MethodPut:
		h.CreatePhysicalAnchor(w, r, parts[1], parts[2])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.DeleteAnchorSet(w, r, parts[0])
	case len(parts) == 2 && r.Method == http.MethodDelete:
		h.DeleteAnchor(w, r, parts[0], parts[1])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *AnchorSetHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.GetAnchorSetSummaries(r.Context())
	if err != nil {
		writeError(w, h.logger, "ListAnchorSets", err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *AnchorSetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var name string
	if err := readBodyJSON(r, maxBodyBytes, &name); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	set, err := h.svc.CreateAnchorSet(r.Context(), name)
	if err != nil {
		writeError(w, h.logger, "CreateAnchorSet", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (h *AnchorSetHandler) GetVirtual(w http.ResponseWriter, r *http.Request, anchorSetID string) {
	set, err := h.svc.GetVirtualAnchorSet(r.Context(), anchorSetID)
	if err != nil {
		writeError(w, h.logger, "GetVirtualAnchorSet", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (h *AnchorSetHandler) GetPhysical(w http.ResponseWriter, r *http.Request, anchorSetID string) {
	set, err := h.svc.GetPhysicalAnchorSet(r.Context(), anchorSetID)
	if err != nil {
		writeError(w, h.logger, "GetPhysicalAnchorSet", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (h *AnchorSetHandler) CreateVirtualAnchor(w http.ResponseWriter, r *http.Request, anchorSetID, anchorID string) {
	set, err := h.svc.CreateVirtualAnchor(r.Context(), anchorSetID, anchorID)
	if err != nil {
		writeError(w, h.logger, "CreateVirtualAnchor", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (h *AnchorSetHandler) CreatePhysicalAnchor(w http.ResponseWriter, r *http.Request, anchorSetID, anchorID string) {
	var deviceID string
	if err := readBodyJSON(r, maxBodyBytes, &deviceID); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	set, err := h.svc.CreatePhysicalAnchor(r.Context(), anchorSetID, anchorID, deviceID)
	if err != nil {
		writeError(w, h.logger, "CreatePhysicalAnchor", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (h *AnchorSetHandler) DeleteAnchorSet(w http.ResponseWriter, r *http.Request, anchorSetID string) {
	if err := h.svc.DeleteAnchorSet(r.Context(), anchorSetID); err != nil {
		writeError(w, h.logger, "DeleteAnchorSet", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AnchorSetHandler) DeleteAnchor(w http.ResponseWriter, r *http.Request, anchorSetID, anchorID string) {
	set, err := h.svc.DeleteAnchor(r.Context(), anchorSetID, anchorID)
	if err != nil {
		writeError(w, h.logger, "DeleteAnchor", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}
