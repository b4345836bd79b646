package api

import (
	"log/slog"
	"net/http"

	"fileembed/internal/server/config"
	"fileembed/internal/server/web"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
func SetupRouter(handler *Handler, cfg *config.Config) (*echo.Echo, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.LogLevel <= slog.LevelDebug
	e.Renderer = renderer

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, "If-None-Match"},
	}))
	e.Use(RequestLogger())
	e.Use(Metrics())

	// Health, stats & metrics
	e.GET("/health", handler.HandleHealth)
	e.GET("/api/stats", handler.HandleStats)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Pages
	e.GET("/", handler.HandleIndex)
	e.POST("/upload", handler.HandleUploadForm)
	e.GET("/view", handler.HandleView)
	e.GET("/view/", handler.HandleView)
	e.GET("/view/:id", handler.HandleView)

	// API
	e.POST("/api/upload", handler.HandleUpload)
	e.POST("/api/files", handler.HandleSubmit)
	e.HEAD("/api/files/:id", handler.HandleExists)
	e.GET("/api/info/:id", handler.HandleInfo)

	// Download
	e.GET("/d/:id", handler.HandleDownload)

	return e, nil
}
