package handlers

import (
	"fmt"
	"net/http"

	"home-price-api/config"
	"home-price-api/middleware"
	"home-price-api/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter builds the gin engine. cache may be nil.
func SetupRouter(svc *services.PredictionService, cache *services.CacheService, corsCfg config.CORSConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.RequestID(), middleware.Metrics(), middleware.SetupCORS(corsCfg))

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		services.RecordRejection(services.ErrorMethodNotAllowed)
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": fmt.Sprintf("Method %q not allowed.", c.Request.Method)})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "UP",
			"message": "Home Price Prediction API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := NewPredictionHandler(svc)

	api := router.Group("/api/predictions")
	{
		api.POST("/", h.Create)
		api.GET("/", NotAvailable)

		api.GET("/session-data/", h.ListSession)
		api.PATCH("/session-update/:id/", h.UpdateInSession)
		api.PUT("/session-update/:id/", h.UpdateInSession)
		api.DELETE("/session-delete/:id/", h.DeleteInSession)
		api.GET("/session-stream/", SessionStream(cache))

		// The store can look up and update any row by id; callers cannot.
		api.GET("/:id/", NotAvailable)
		api.PUT("/:id/", NotAvailable)
		api.PATCH("/:id/", NotAvailable)
		api.DELETE("/:id/", NotAvailable)
	}

	return router
}
