// This middleware is used to integrate zerolog extension created in logger.go into gin server.

package log

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Primary use-case of this middleware is to force gin to use zerolog functionality instead of the default one.
// Every request ends up as one structured line. Websocket and SSE requests are long lived,
// their latency is the session length.
func LoggerGinExtension(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" && c.Query("token") == "" {
			// Never log access tokens passed in the query.
			path = path + "?" + raw
		}

		// Process request
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		if latency > time.Minute {
			latency = latency.Truncate(time.Second)
		}

		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.WithCtx(c).Error()
		case status >= http.StatusBadRequest:
			event = logger.WithCtx(c).Warn()
		default:
			event = logger.WithCtx(c).Info()
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			event = event.Str("errors", errs)
		}
		event.
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Int("body_size", c.Writer.Size()).
			Bool("upgrade", c.IsWebsocket()).
			Msg("Request served")
	}
}
