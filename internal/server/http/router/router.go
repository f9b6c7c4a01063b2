package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/AlwaysKim-03/orderland-sub000/internal/server/http/handlers"
	"github.com/AlwaysKim-03/orderland-sub000/internal/server/http/middleware"
)

const (
	eventsPath     = "/api/events"
	maxRequestSize = 1 << 20
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.BoardFacade, health handlers.HealthChecker, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest(maxRequestSize))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{eventsPath})))

	tableHandler := handlers.NewTableHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	cartHandler := handlers.NewCartHandler(facade)
	eventHandler := handlers.NewEventHandler(facade, logger)
	healthHandler := handlers.NewHealthHandler(health)

	engine.GET("/healthz", healthHandler.Check)

	api := engine.Group("/api")
	api.GET("/tables", tableHandler.List)
	api.POST("/tables", tableHandler.Add)
	api.GET("/tables/:id", tableHandler.Get)
	api.DELETE("/tables/:id", tableHandler.Remove)
	api.POST("/tables/:id/confirm", tableHandler.Confirm)
	api.POST("/tables/:id/end", tableHandler.End)
	api.GET("/tables/:id/cart", cartHandler.Get)
	api.PUT("/tables/:id/cart", cartHandler.Put)

	api.GET("/orders", orderHandler.List)
	api.POST("/orders", orderHandler.Place)
	api.DELETE("/orders/:id/items/:index", orderHandler.DeleteItem)

	engine.GET(eventsPath, eventHandler.Stream)

	return engine
}
