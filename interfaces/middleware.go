package interfaces

import (
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"job-board/application"
	"job-board/infrastructure"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// NewRouter builds the gin engine with recovery, CORS, request logging and
// every route registered.
func NewRouter(service *application.BoardService, db *gorm.DB, metrics *infrastructure.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(RequestLogger(metrics))

	NewHTTPHandler(router, service, db, metrics)
	return router
}

// RequestLogger tags every request with an id, logs its outcome and counts
// it by route template so token values never become label values.
func RequestLogger(metrics *infrastructure.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		entry := log.WithField("request_id", requestID)
		c.Set(loggerKey, entry)

		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequest(c.Request.Method, route, strconv.Itoa(status))

		entry = entry.WithFields(log.Fields{
			"method":      c.Request.Method,
			"route":       route,
			"status":      status,
			"duration_ms": time.Since(started).Milliseconds(),
			"client_ip":   infrastructure.ResolveClientIP(c.Request.Header),
		})
		if status >= 500 {
			entry.Error("request completed")
		} else {
			entry.Info("request completed")
		}
	}
}
