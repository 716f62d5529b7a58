// presence repository encapsulates the data access logic (interactions with the DB) related to user presence in Codepad.

package presence

import (
	"Codepad/internal/entity"
	"Codepad/internal/errors"
	"Codepad/pkg/db"
	"Codepad/pkg/log"
	"context"

	"github.com/go-redis/redis/v8"
)

type Repository interface {
	// SetPresence stores the latest status and last-seen time of a user.
	SetPresence(ctx context.Context, logger log.Logger, record entity.PresenceRecord) error
	// GetPresence fetches the stored status of a user, NotFound if none was ever stored.
	GetPresence(ctx context.Context, logger log.Logger, userID string) (entity.PresenceRecord, error)
}

// repository struct of presence Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of presence repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

func presenceKey(userID string) string {
	return "presence:" + userID
}

// Returns nil if the presence record got successfully saved into the DB.
func (r repository) SetPresence(ctx context.Context, logger log.Logger, record entity.PresenceRecord) error {
	key := presenceKey(record.UserID)
	if _, dberr := r.db.Client().Pipelined(ctx, func(client redis.Pipeliner) error {
		client.HSet(ctx, key, "user_id", record.UserID, "online", record.Online, "last_seen", record.LastSeen)
		return nil
	}); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Pipelined() in presence.SetPresence")
		return errors.InternalServerError("")
	}
	return nil
}

// Returns the stored presence record of userID.
func (r repository) GetPresence(ctx context.Context, logger log.Logger, userID string) (entity.PresenceRecord, error) {
	var record entity.PresenceRecord
	res := r.db.Client().HGetAll(ctx, presenceKey(userID))
	if dberr := res.Err(); dberr != nil && dberr != redis.Nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HGetAll() in presence.GetPresence")
		return record, errors.InternalServerError("")
	}
	if len(res.Val()) == 0 {
		return record, errors.NotFound("No presence recorded for this user")
	}
	if dberr := res.Scan(&record); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during scanning presence record in presence.GetPresence")
		return record, errors.InternalServerError("")
	}
	return record, nil
}
