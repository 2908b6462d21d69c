package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterHealthRoutes /healthz
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
}

// RegisterAnchorSetRoutes /v1/anchorsets
func (r *Router) RegisterAnchorSetRoutes(h *AnchorSetHandler) {
	r.HandleHandler(anchorSetsPath, h)
	r.HandleHandler(anchorSetsPath+"/", h)
}

// RegisterTopologyRoutes /v1/topology
func (r *Router) RegisterTopologyRoutes(h *TopologyHandler) {
	r.HandleHandler(topologyPath, h)
	r.HandleHandler(topologyPath+"/", h)
}

// RegisterSharedStateRoutes /v1/sharedstate/{id}
func (r *Router) RegisterSharedStateRoutes(h *SharedStateHandler) {
	r.HandleHandler(sharedStatePath+"/", h)
}

// RegisterSensorDataRoutes /v1/sensordata, /v1/desireddata（移动端带尾部斜杠）
func (r *Router) RegisterSensorDataRoutes(h *SensorDataHandler) {
	r.Handle(sensorDataPath, h.GetSensorData)
	r.Handle(sensorDataPath+"/", h.GetSensorData)
	r.Handle(desiredDataPath, h.GetDesiredData)
	r.Handle(desiredDataPath+"/", h.GetDesiredData)
}

// RegisterAppTokenRoutes /v1/apptoken
func (r *Router) RegisterAppTokenRoutes(h *AppTokenHandler) {
	r.HandleHandler("/v1/apptoken", h)
}
