package main

import (
	"Codepad/internal/config"
	"Codepad/internal/metrics"
	"Codepad/internal/presence"
	"Codepad/internal/room"
	"Codepad/pkg/db"
	"Codepad/pkg/log"
	"Codepad/pkg/worker"
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// app holds the long running components of Codepad.
type app struct {
	hub          *room.Hub
	notifier     *presence.Notifier
	presenceRepo presence.Repository
	roomRepo     room.Repository
	metrics      metrics.Service

	stopHub   context.CancelFunc
	stopFlush context.CancelFunc
	flushDone chan struct{}
	queues    []*worker.Queue
}

// newApp wires the hub, presence and metrics together and starts them.
func newApp(ctx context.Context, cfg config.Config, dbconn *db.RedisDB, logger log.Logger) *app {
	a := &app{
		presenceRepo: presence.NewRepository(dbconn),
		roomRepo:     room.NewRepository(dbconn),
		flushDone:    make(chan struct{}),
	}
	// No connection outlives the process, snapshots of the last run are stale.
	if err := a.roomRepo.ClearRooms(ctx, logger); err != nil {
		logger.Warn().Err(err).Msg("Couldn't clear stale room snapshots")
	}

	// Single workers keep writes of one key in order.
	presenceQueue := worker.NewQueue("presence", 1, 1024, 2*time.Second, logger)
	roomQueue := worker.NewQueue("room-snapshots", 1, 1024, 2*time.Second, logger)
	a.queues = []*worker.Queue{presenceQueue, roomQueue}

	a.notifier = presence.NewNotifier(logger, cfg.PresenceHeartbeat)
	a.notifier.Subscribe(presence.NewRecorder(a.presenceRepo, presenceQueue, logger, time.Now))

	a.hub = room.NewHub(logger, room.Options{ReconnectGrace: cfg.RoomReconnectGrace}, a.notifier,
		room.NewSnapshotWriter(a.roomRepo, roomQueue, logger))
	hubCtx, stopHub := context.WithCancel(context.Background())
	a.stopHub = stopHub
	go a.hub.Run(hubCtx)

	a.metrics = metrics.NewService(a.hub, metrics.NewRepository(dbconn), cfg.MetricsFlushInterval, logger)
	flushCtx, stopFlush := context.WithCancel(context.Background())
	a.stopFlush = stopFlush
	go func() {
		defer close(a.flushDone)
		a.metrics.Run(flushCtx)
	}()
	return a
}

// stop flushes the metrics one last time, closes every connection and drains the write queues.
func (a *app) stop(ctx context.Context) error {
	a.stopFlush()
	select {
	case <-a.flushDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	a.stopHub()
	select {
	case <-a.hub.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	a.notifier.Close()

	g, gctx := errgroup.WithContext(ctx)
	for _, q := range a.queues {
		q := q
		g.Go(func() error { return q.Stop(gctx) })
	}
	return g.Wait()
}
