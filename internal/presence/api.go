// Exposes all of the REST APIs related to presence in Codepad.

package presence

import (
	"Codepad/internal/entity"
	"Codepad/internal/errors"
	"Codepad/pkg/log"
	"Codepad/pkg/middlewares"
	"io"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/gin-gonic/gin"
)

// Buffered events per SSE client, the client is skipped while its buffer is full.
const streamBuffer = 64

// Path parameters of GET /api/presence/:user_id.
type userParams struct {
	UserID string `valid:"required~user_id:User id is required,printableascii~user_id:User id must be printable ascii,stringlength(1|128)~user_id:User id must be 1 to 128 characters"`
}

// Registers all of the REST API handlers related to internal package presence onto the gin server.
func APIHandlers(router *gin.Engine, notifier *Notifier, repo Repository, logger log.Logger) {
	presenceGroup := router.Group("/api/presence")
	{
		presenceGroup.GET("/stream", middlewares.SSEMiddleware(), streamPresence(notifier, logger))
		presenceGroup.GET("/:user_id", getPresence(notifier, repo, logger))
	}
}

// getPresence returns the live status of a user, falling back to the last stored one.
func getPresence(notifier *Notifier, repo Repository, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		userID := gctx.Param("user_id")
		if _, valerr := govalidator.ValidateStruct(userParams{UserID: userID}); valerr != nil {
			errResp := errors.FromValidation(valerr)
			gctx.JSON(errResp.Status, errResp)
			return
		}
		if notifier.IsOnline(userID) {
			gctx.JSON(http.StatusOK, entity.PresenceRecord{UserID: userID, Online: true, LastSeen: time.Now().Unix()})
			return
		}
		record, err := repo.GetPresence(gctx, logger, userID)
		if err != nil {
			// Error occured, might be not found or server error
			errResp, ok := err.(errors.ErrorResponse)
			if !ok {
				gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.JSON(errResp.Status, errResp)
			return
		}
		// Only the live map can say a user is online.
		record.Online = false
		gctx.JSON(http.StatusOK, record)
	}
}

// streamPresence streams every presence change as a Server-Sent Event, starting with the users online right now.
func streamPresence(notifier *Notifier, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		reqLogger := logger.WithCtx(gctx)
		events := make(chan entity.PresenceEvent, streamBuffer)
		unsubscribe := notifier.Subscribe(streamSubscriber(events, reqLogger))
		defer unsubscribe()

		for userID, online := range notifier.Snapshot() {
			if online {
				gctx.SSEvent("presence", entity.PresenceEvent{UserID: userID, Online: true})
			}
		}
		gctx.Writer.Flush()

		gctx.Stream(func(w io.Writer) bool {
			select {
			// Send presence change to the client
			case ev := <-events:
				gctx.SSEvent("presence", ev)
				return true
			// Client exit
			case <-gctx.Request.Context().Done():
				return false
			}
		})
		reqLogger.Info().Msg("Presence stream closed")
	}
}

// streamSubscriber queues presence changes for one SSE client without blocking.
// It may still be called after the handler returned, so it only touches what it was given.
func streamSubscriber(events chan<- entity.PresenceEvent, reqLogger log.Logger) Callback {
	return func(userID string, online bool) {
		select {
		case events <- entity.PresenceEvent{UserID: userID, Online: online}:
		default:
			reqLogger.Warn().Str("user_id", userID).Msg("Presence stream lagging, event dropped")
		}
	}
}
