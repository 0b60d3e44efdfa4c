package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/zing-commerce/cart-engine/internal/adapters/handler/http/middleware"
	"github.com/zing-commerce/cart-engine/internal/core/services"
)

type RouterDependencies struct {
	CartHandler    *CartHandler
	SessionHandler *SessionHandler
	TokenService   *services.TokenService
	DB             *sqlx.DB
	Redis          *redis.Client
	StartTime      time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-Guest-Session")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Guest-Session")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	if deps.Redis != nil {
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, 100, 1*time.Minute))
	}

	router.GET("/health", func(c *gin.Context) {
		redisStatus := "connected"
		if deps.Redis == nil {
			redisStatus = "disabled"
		} else if deps.Redis.Ping(c.Request.Context()).Err() != nil {
			redisStatus = "unreachable"
		}

		dbStatus := "connected"
		if deps.DB == nil {
			dbStatus = "disabled"
		} else if deps.DB.Ping() != nil {
			dbStatus = "unreachable"
		}

		statusCode := 200
		if redisStatus == "unreachable" || dbStatus == "unreachable" {
			statusCode = 503
		}

		c.JSON(statusCode, gin.H{
			"status":   "ok",
			"redis":    redisStatus,
			"database": dbStatus,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	})

	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.ActorMiddleware(deps.TokenService))
	{
		deps.CartHandler.RegisterRoutes(apiV1)
		deps.SessionHandler.RegisterRoutes(apiV1)
	}

	return router
}
