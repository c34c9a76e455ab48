package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"user-registry/cmd/api/di"
	ginrouter "user-registry/internal/adapter/gin/router"
	"user-registry/internal/config"

	"go.uber.org/zap"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	Gin    *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, c *di.Container) *Server {
	opts := ginrouter.Options{
		PublicDir:     cfg.App.PublicDir,
		StorageDir:    cfg.Storage.Path,
		MaxPhotoBytes: cfg.Storage.MaxPhotoBytes,
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			opts.DB = sqlDB
		}
	}

	return &Server{
		Config: cfg,
		Logger: l,
		Gin:    SetupGinServer(c.GinHandler, opts, address(cfg), l),
	}
}

// Start listens on PORT and serves until Shutdown is called.
func (s *Server) Start() error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(context.Background(), "tcp", s.Gin.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return s.Serve(lis)
}

// Serve accepts connections on lis. A clean shutdown is not an error.
func (s *Server) Serve(lis net.Listener) error {
	s.Logger.Info("Server listening", zap.String("address", lis.Addr().String()))

	if err := s.Gin.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Gin.Shutdown(ctx)
}

func address(cfg *config.Config) string {
	return ":" + cfg.App.Port
}
