// Exposes the stored metrics of Codepad.

package metrics

import (
	"Codepad/internal/errors"
	"Codepad/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package metrics onto the gin server.
func APIHandlers(router *gin.Engine, service Service, logger log.Logger) {
	router.GET("/api/metrics", getMetrics(service, logger))
}

// getMetrics returns the counters last flushed to Redis.
func getMetrics(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		metrics, err := service.GetMetrics(gctx)
		if err != nil {
			errResp, ok := err.(errors.ErrorResponse)
			if !ok {
				gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.JSON(errResp.Status, errResp)
			return
		}
		gctx.JSON(http.StatusOK, metrics)
	}
}
