package httpapi

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"smarthotel-mr/internal/service"
)

const sharedStatePath = "/v1/sharedstate"

// SharedStateHandler /v1/sharedstate
type SharedStateHandler struct {
	svc    service.SharedStateService
	logger *zap.Logger
}

func NewSharedStateHandler(svc service.SharedStateService, logger *zap.Logger) *SharedStateHandler {
	return &SharedStateHandler{svc: svc, logger: logger}
}

// ServeHTTP
//
//	GET /v1/sharedstate/{id}
//	PUT /v1/sharedstate/{id}
//	PUT /v1/sharedstate/{id}/device/{deviceId}/{toggled}
func (h *SharedStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, sharedStatePath+"/")
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.Get(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodPut:
		h.Update(w, r, parts[0])
	case len(parts) == 4 && parts[1] == "device" && r.Method == http.MethodPut:
		h.TogglePanel(w, r, parts[0], parts[2], parts[3])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *SharedStateHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	state, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "GetSharedState", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *SharedStateHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var payload service.SharedStateUpdate
	if err := readBodyJSON(r, maxBodyBytes, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	state, err := h.svc.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, h.logger, "UpdateSharedState", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *SharedStateHandler) TogglePanel(w http.ResponseWriter, r *http.Request, id, deviceID, toggledStr string) {
	toggled, err := strconv.ParseBool(toggledStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("toggled must be true or false"))
		return
	}
	state, err := h.svc.TogglePanel(r.Context(), id, deviceID, toggled)
	if err != nil {
		writeError(w, h.logger, "ToggleSensorPanel", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
