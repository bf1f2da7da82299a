package server

import (
	"context"
	"net/http"
	"time"

	"claimspipe/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

type ServerConfig struct {
	Port string
}

// HTTPServer owns the listener lifecycle; fx starts and stops it with the
// rest of the app.
type HTTPServer struct {
	server *http.Server
	logger logger.Logger
}

func NewHTTPServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	config ServerConfig,
	log logger.Logger,
) *HTTPServer {
	s := &HTTPServer{
		// No write timeout: export downloads can take a while on slow links
		server: &http.Server{
			Addr:              ":" + config.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		logger: log.With(logger.String("component", "http_server")),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.serve()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.logger.Info("shutting down HTTP server")
			return s.server.Shutdown(ctx)
		},
	})

	return s
}

func (s *HTTPServer) serve() {
	s.logger.Info("starting HTTP server", logger.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Fatal("HTTP server failed", logger.Error(err))
	}
}
