package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"smarthotel-mr/internal/service"
)

const (
	sensorDataPath  = "/v1/sensordata"
	desiredDataPath = "/v1/desireddata"
)

// SensorDataHandler /v1/sensordata 与 /v1/desireddata
// 未提供 id 时返回 404（与移动端约定一致）
type SensorDataHandler struct {
	sensorData  service.SensorDataService
	desiredData service.DesiredDataService
	logger      *zap.Logger
}

func NewSensorDataHandler(sensorData service.SensorDataService, desiredData service.DesiredDataService, logger *zap.Logger) *SensorDataHandler {
	return &SensorDataHandler{sensorData: sensorData, desiredData: desiredData, logger: logger}
}

// GetSensorData GET /v1/sensordata?roomIds=a,b
func (h *SensorDataHandler) GetSensorData(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSuffix(r.URL.Path, "/") != sensorDataPath {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	data, err := h.sensorData.Latest(r.Context(), splitCSV(r.URL.Query()["roomIds"]))
	if errors.Is(err, service.ErrInvalidArgument) {
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
		return
	}
	if err != nil {
		writeError(w, h.logger, "GetSensorData", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// GetDesiredData GET /v1/desireddata?sensorIds=a,b
func (h *SensorDataHandler) GetDesiredData(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSuffix(r.URL.Path, "/") != desiredDataPath {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	data, err := h.desiredData.Find(r.Context(), splitCSV(r.URL.Query()["sensorIds"]))
	if errors.Is(err, service.ErrInvalidArgument) {
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
		return
	}
	if err != nil {
		writeError(w, h.logger, "GetDesiredData", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
