package handlers

import (
	"net/http"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/metrics"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterDeps struct {
	Countries   *CountryHandler
	Health      *HealthHandler
	RateLimiter *middleware.RateLimiter
	Log         *logrus.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(deps.Log),
		middleware.Logger(deps.Log),
		middleware.Metrics(),
	)

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.RequestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/health", deps.Health.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	countries := router.Group("/countries")
	{
		h := deps.Countries
		throttled := []gin.HandlerFunc{}
		if deps.RateLimiter != nil {
			throttled = append(throttled, deps.RateLimiter.Handler())
		}

		countries.POST("/refresh", append(throttled, h.RefreshCountries)...)
		countries.POST("/add", append(throttled, h.AddCountry)...)
		countries.GET("", h.ListCountries)
		countries.GET("/status", h.GetStatus)
		countries.GET("/image", h.GetSummaryImage)
		countries.GET("/gdp/top", h.GetTopCountries)
		countries.GET("/:name", h.GetCountry)
		countries.DELETE("/:name", h.DeleteCountry)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return router
}
