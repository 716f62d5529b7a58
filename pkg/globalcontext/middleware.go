// Context middleware is used in gin to populate request context with unique ID.
// This ID will be helpful in debugging issues happening for a request in handler chain.

package globalcontext

import (
	"Codepad/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Key of the request id in the gin context, read back by log.Logger.WithCtx.
const ReqIDKey = "ReqID"

// This middleware will be used to populate every incoming request's context with an Unique UUID.
// A well formed X-Request-ID from a proxy in front of Codepad is reused.
func UniqueIDMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		if upstream, err := uuid.Parse(gctx.GetHeader("X-Request-ID")); err == nil {
			gctx.Set(ReqIDKey, upstream.String())
			gctx.Next()
			return
		}
		rqId, uuiderr := uuid.NewRandom()
		if uuiderr != nil {
			logger.Error().Err(uuiderr).Msg("Error during generating UUID for ReqID.")
		} else {
			gctx.Set(ReqIDKey, rqId.String())
			gctx.Writer.Header().Set("X-Request-ID", rqId.String())
		}
		gctx.Next()
	}
}
