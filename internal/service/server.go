package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server smarthotel-mr HTTP 服务
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// export / 拓扑组装会串行请求 Digital Twins，写超时放宽
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  90 * time.Second,
	}
	return &Server{httpServer: s, logger: logger}
}

func (s *Server) Addr() string { return s.httpServer.Addr }

// Start 阻塞直到服务退出；Stop 触发的关闭返回 nil
func (s *Server) Start() error {
	s.logger.Info("Starting smarthotel-mr HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping smarthotel-mr HTTP server")
	return s.httpServer.Shutdown(ctx)
}
