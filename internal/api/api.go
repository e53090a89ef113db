// Package api serves the indicator engine over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/amirphl/simple-ta/internal/indicator"
	"github.com/amirphl/simple-ta/internal/metrics"
	"github.com/amirphl/simple-ta/internal/utils"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/params/default", GetDefaultParams)
	v1.POST("/analyze", Analyze)
	v1.POST("/indicators/:name", ComputeIndicator)

	return r
}

// requestLogger logs each request and counts it by route template and status.
func requestLogger() gin.HandlerFunc {
	log := utils.Component("api")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		log.Debug().
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// abort answers 400 for bad input and 500 for everything else.
func abort(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, indicator.ErrInvalidArgument) || errors.Is(err, errBadRequest) {
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

// Health answers liveness checks.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
