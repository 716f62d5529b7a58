// room repository keeps a snapshot of every room's members in Redis, so other
// processes can see who is in a room without talking to the hub.

package room

import (
	"Codepad/internal/entity"
	"Codepad/internal/errors"
	"Codepad/pkg/db"
	"Codepad/pkg/log"
	"Codepad/pkg/worker"
	"context"
	"encoding/json"
	"sort"

	"github.com/go-redis/redis/v8"
)

const membersKeyPrefix = "room-members:"

type Repository interface {
	// AddMember stores (or overwrites) the snapshot entry of member.
	AddMember(ctx context.Context, logger log.Logger, member entity.Member) error
	// RemoveMember deletes the snapshot entry of connID in room.
	RemoveMember(ctx context.Context, logger log.Logger, room, connID string) error
	// GetMembers lists the snapshot of room, oldest member first.
	GetMembers(ctx context.Context, logger log.Logger, room string) ([]entity.Member, error)
	// ClearRooms drops every room snapshot, used on startup since no connection survives a restart.
	ClearRooms(ctx context.Context, logger log.Logger) error
}

type repository struct {
	db *db.RedisDB
}

// Returns a new instance of room repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

func membersKey(room string) string {
	return membersKeyPrefix + room
}

func (r repository) AddMember(ctx context.Context, logger log.Logger, member entity.Member) error {
	value, err := json.Marshal(member)
	if err != nil {
		logger.WithCtx(ctx).Error().Err(err).Msg("Error occured during marshaling member in room.AddMember")
		return errors.InternalServerError("")
	}
	if dberr := r.db.Client().HSet(ctx, membersKey(member.Room), member.ConnID, value).Err(); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HSet() in room.AddMember")
		return errors.InternalServerError("")
	}
	return nil
}

func (r repository) RemoveMember(ctx context.Context, logger log.Logger, room, connID string) error {
	if dberr := r.db.Client().HDel(ctx, membersKey(room), connID).Err(); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HDel() in room.RemoveMember")
		return errors.InternalServerError("")
	}
	return nil
}

func (r repository) GetMembers(ctx context.Context, logger log.Logger, room string) ([]entity.Member, error) {
	res, dberr := r.db.Client().HGetAll(ctx, membersKey(room)).Result()
	if dberr != nil && dberr != redis.Nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HGetAll() in room.GetMembers")
		return nil, errors.InternalServerError("")
	}
	members := make([]entity.Member, 0, len(res))
	for connID, value := range res {
		var member entity.Member
		if err := json.Unmarshal([]byte(value), &member); err != nil {
			logger.WithCtx(ctx).Warn().Err(err).Str("conn_id", connID).Msg("Skipping corrupt room member snapshot")
			continue
		}
		members = append(members, member)
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Joined.Equal(members[j].Joined) {
			return members[i].ConnID < members[j].ConnID
		}
		return members[i].Joined.Before(members[j].Joined)
	})
	return members, nil
}

func (r repository) ClearRooms(ctx context.Context, logger log.Logger) error {
	iter := r.db.Client().Scan(ctx, 0, membersKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if dberr := iter.Err(); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Scan() in room.ClearRooms")
		return errors.InternalServerError("")
	}
	if len(keys) == 0 {
		return nil
	}
	if dberr := r.db.Client().Del(ctx, keys...).Err(); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Del() in room.ClearRooms")
		return errors.InternalServerError("")
	}
	logger.Info().Int("rooms", len(keys)).Msg("Cleared stale room snapshots")
	return nil
}

// snapshotWriter is the Snapshotter writing through a Repository off the hub goroutine.
// The queue must run a single worker to keep writes of a connection in order.
type snapshotWriter struct {
	repo   Repository
	queue  *worker.Queue
	logger log.Logger
}

func NewSnapshotWriter(repo Repository, queue *worker.Queue, logger log.Logger) Snapshotter {
	return snapshotWriter{repo: repo, queue: queue, logger: logger}
}

func (w snapshotWriter) MemberJoined(member entity.Member) {
	if !w.queue.Submit(func(ctx context.Context) error {
		return w.repo.AddMember(ctx, w.logger, member)
	}) {
		w.logger.Warn().Str("room", member.Room).Str("conn_id", member.ConnID).Msg("Room snapshot write dropped")
	}
}

func (w snapshotWriter) MemberLeft(room, connID string) {
	if !w.queue.Submit(func(ctx context.Context) error {
		return w.repo.RemoveMember(ctx, w.logger, room, connID)
	}) {
		w.logger.Warn().Str("room", room).Str("conn_id", connID).Msg("Room snapshot write dropped")
	}
}
