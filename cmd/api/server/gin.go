package server

import (
	"net/http"
	"time"

	ginhandler "user-registry/internal/adapter/gin/handler"
	ginrouter "user-registry/internal/adapter/gin/router"

	"go.uber.org/zap"
)

// SetupGinServer creates the HTTP server for the registration site.
// Read and write timeouts leave room for a full-size photo on a slow link.
func SetupGinServer(
	handler *ginhandler.UserHandler,
	opts ginrouter.Options,
	ginAddr string,
	l *zap.Logger,
) *http.Server {
	// Setup Gin router with all middleware and routes
	router := ginrouter.SetupRouter(handler, opts, l)

	l.Info("Gin server configured",
		zap.String("address", ginAddr),
		zap.String("public_dir", opts.PublicDir),
		zap.String("storage_dir", opts.StorageDir),
	)

	return &http.Server{
		Addr:              ginAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
