// Exposes all of the REST APIs related to rooms in Codepad.

package room

import (
	"Codepad/internal/entity"
	"Codepad/internal/errors"
	"Codepad/pkg/log"
	"context"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"
)

// Upper bound of a snapshot read shared by concurrent requests.
const snapshotReadTimeout = 3 * time.Second

// Path parameters of the /api/room/:room endpoints, same rules as enterRoom.
type roomParams struct {
	Room string `valid:"required~room:Room is required,printableascii~room:Room must be printable ascii,stringlength(1|64)~room:Room must be 1 to 64 characters"`
}

// Registers all of the REST API handlers related to internal package room onto the gin server.
func APIHandlers(router *gin.Engine, hub *Hub, repo Repository, logger log.Logger) {
	roomGroup := router.Group("/api/room")
	{
		roomGroup.GET("/:room/members", validateRoom(), getMembers(hub, logger))
		roomGroup.GET("/:room/snapshot", validateRoom(), getSnapshot(repo, &singleflight.Group{}, logger))
	}
	router.GET("/api/stats", getStats(hub, logger))
}

// validateRoom rejects malformed :room parameters with the validation errors.
func validateRoom() gin.HandlerFunc {
	return func(gctx *gin.Context) {
		if _, valerr := govalidator.ValidateStruct(roomParams{Room: gctx.Param("room")}); valerr != nil {
			errResp := errors.FromValidation(valerr)
			gctx.AbortWithStatusJSON(errResp.Status, errResp)
			return
		}
		gctx.Next()
	}
}

// getMembers returns the live member list of a room, as the members see it.
func getMembers(hub *Hub, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		users, err := hub.Members(gctx, gctx.Param("room"))
		if err != nil {
			logger.WithCtx(gctx).Error().Err(err).Msg("Error occured during fetching members in room.getMembers")
			gctx.JSON(http.StatusServiceUnavailable, errors.ErrorResponse{Status: http.StatusServiceUnavailable, Message: "Rooms are unavailable right now."})
			return
		}
		gctx.JSON(http.StatusOK, entity.UserList{Users: users})
	}
}

// getSnapshot returns the member list of a room stored in Redis.
// Concurrent requests for one room share a single read, which is detached from
// any one request so a client going away doesn't fail the others.
func getSnapshot(repo Repository, group *singleflight.Group, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		roomID := gctx.Param("room")
		val, err, _ := group.Do(roomID, func() (interface{}, error) {
			ctx, cancel := context.WithTimeout(context.Background(), snapshotReadTimeout)
			defer cancel()
			return repo.GetMembers(ctx, logger, roomID)
		})
		if err != nil {
			errResp, ok := err.(errors.ErrorResponse)
			if !ok {
				gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.JSON(errResp.Status, errResp)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"room": roomID, "members": val.([]entity.Member)})
	}
}

func getStats(hub *Hub, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		stats, err := hub.Stats(gctx)
		if err != nil {
			logger.WithCtx(gctx).Error().Err(err).Msg("Error occured during fetching stats in room.getStats")
			gctx.JSON(http.StatusServiceUnavailable, errors.ErrorResponse{Status: http.StatusServiceUnavailable, Message: "Rooms are unavailable right now."})
			return
		}
		gctx.JSON(http.StatusOK, stats)
	}
}
