package presence

import (
	"Codepad/internal/entity"
	"Codepad/pkg/log"
	"Codepad/pkg/worker"
	"context"
	"time"
)

// NewRecorder returns a Callback persisting every presence change through repo.
// Writes run on queue so the notifying goroutine never waits on Redis.
func NewRecorder(repo Repository, queue *worker.Queue, logger log.Logger, now func() time.Time) Callback {
	return func(userID string, online bool) {
		record := entity.PresenceRecord{UserID: userID, Online: online, LastSeen: now().Unix()}
		queue.Submit(func(ctx context.Context) error {
			return repo.SetPresence(ctx, logger, record)
		})
	}
}
