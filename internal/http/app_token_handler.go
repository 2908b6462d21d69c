package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"smarthotel-mr/internal/service"
)

// AppTokenHandler GET /v1/apptoken
// 返回 Spatial Anchors access token（纯文本）
type AppTokenHandler struct {
	tokens service.AppTokenProvider
	logger *zap.Logger
}

func NewAppTokenHandler(tokens service.AppTokenProvider, logger *zap.Logger) *AppTokenHandler {
	return &AppTokenHandler{tokens: tokens, logger: logger}
}

func (h *AppTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	token, err := h.tokens.GetToken(r.Context())
	if err != nil {
		writeError(w, h.logger, "GetAppToken", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(token))
}
