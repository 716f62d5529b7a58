// Exposes the websocket endpoint of Codepad.

package ws

import (
	"Codepad/internal/auth"
	"Codepad/internal/errors"
	"Codepad/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Options struct {
	// Allowed Origin of the upgrade request, "*" or empty allows any.
	CORSOrigin string
	// Secret of access tokens, empty accepts anonymous upgrades.
	AuthSecret string
}

// Registers the websocket endpoint onto the gin server.
func APIHandlers(router *gin.Engine, hub Hub, opts Options, logger log.Logger) {
	allowed := checkOrigin(opts.CORSOrigin)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     allowed,
	}
	router.GET("/ws", guardUpgrade(allowed), auth.AuthMiddleware(logger, opts.AuthSecret), serveWS(hub, upgrader, logger))
}

func checkOrigin(allowed string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if allowed == "" || allowed == "*" {
			return true
		}
		origin := r.Header.Get("Origin")
		// Non browser clients send no Origin.
		return origin == "" || origin == allowed
	}
}

// guardUpgrade answers plain HTTP requests and foreign origins with JSON errors
// before any token check or upgrade happens.
func guardUpgrade(allowed func(r *http.Request) bool) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		if !gctx.IsWebsocket() {
			gctx.AbortWithStatusJSON(http.StatusBadRequest, errors.BadRequest("Websocket upgrade expected"))
			return
		}
		if !allowed(gctx.Request) {
			gctx.AbortWithStatusJSON(http.StatusForbidden, errors.Forbidden("Origin not allowed"))
			return
		}
		gctx.Next()
	}
}

// serveWS upgrades the request and pumps the connection until it ends.
func serveWS(hub Hub, upgrader websocket.Upgrader, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		wsconn, err := upgrader.Upgrade(gctx.Writer, gctx.Request, nil)
		if err != nil {
			// Upgrade already replied to the client
			logger.WithCtx(gctx).Warn().Err(err).Msg("Websocket upgrade failed")
			return
		}
		conn := NewConn(uuid.NewString(), wsconn, hub, logger, gctx.GetString(auth.UserIDKey), gctx.GetString(auth.EmailKey))
		if !hub.Connect(conn) {
			logger.WithCtx(gctx).Warn().Msg("Room hub stopped, refusing connection")
			wsconn.Close()
			return
		}
		logger.WithCtx(gctx).Info().Str("conn_id", conn.ID()).Str("user_id", conn.userID).Msg("Websocket connected")
		conn.Run()
	}
}
