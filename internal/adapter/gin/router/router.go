package router

import (
	"context"
	"net/http"
	"path/filepath"

	"user-registry/internal/adapter/gin/handler"
	"user-registry/internal/adapter/gin/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartOverhead is the slack allowed on top of the photo limit for the
// text fields and multipart framing.
const multipartOverhead = 1 << 20

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options configures the routes that serve files from disk.
type Options struct {
	PublicDir     string // directory holding index.html
	StorageDir    string // directory holding uploaded photos
	MaxPhotoBytes int64  // largest accepted photo
	DB            Pinger // optional, used by /health
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(userHandler *handler.UserHandler, opts Options, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = opts.MaxPhotoBytes + multipartOverhead

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	// Registration page
	router.StaticFile("/", filepath.Join(opts.PublicDir, "index.html"))

	// Uploaded photos
	router.Static("/uploads", opts.StorageDir)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if opts.DB != nil {
			if err := opts.DB.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  "database unreachable",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "user-registry",
		})
	})

	users := router.Group("/users")
	{
		users.POST("", middleware.BodyLimit(opts.MaxPhotoBytes+multipartOverhead), userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
	}

	return router
}
