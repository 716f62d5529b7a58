// Hub of Codepad: a single goroutine owning every room of the process.
// Transport goroutines talk to it by submitting operations, so the registry,
// the membership table and the sessions are never shared.

package room

import (
	"context"
	"errors"
	"time"

	"Codepad/internal/entity"
	"Codepad/pkg/log"
)

var ErrHubStopped = errors.New("room hub stopped")

type Options struct {
	// How long a connection which dropped for a non final reason is kept
	// before being settled as a ping timeout. Zero keeps it until its
	// transport reports a final reason.
	ReconnectGrace time.Duration
	// Clock of message timestamps, time.Now when nil.
	Now func() time.Time
}

type Hub struct {
	logger log.Logger
	grace  time.Duration
	state  *state
	// Unbuffered: once Dispatch returned, the op was taken by Run and any
	// later submission is handled after it.
	ops  chan func(*state)
	done chan struct{}
}

func NewHub(logger log.Logger, opts Options, presence PresenceTracker, snapshots Snapshotter) *Hub {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Hub{
		logger: logger,
		grace:  opts.ReconnectGrace,
		state:  newState(logger, now, presence, snapshots),
		ops:    make(chan func(*state)),
		done:   make(chan struct{}),
	}
}

// Run processes operations until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.logger.Info().Msg("Room hub started")
	for {
		select {
		case <-ctx.Done():
			h.state.closeAll()
			h.logger.Info().Int("connections", len(h.state.sessions)).Msg("Room hub stopped")
			return
		case op := <-h.ops:
			op(h.state)
		}
	}
}

// Done is closed once Run returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) submit(op func(*state)) bool {
	select {
	case h.ops <- op:
		return true
	case <-h.done:
		return false
	}
}

// Connect announces a new transport. Returns false if the hub stopped.
func (h *Hub) Connect(conn entity.Connection) bool {
	return h.submit(func(s *state) { s.connect(conn) })
}

// Dispatch hands an event of conn to the hub. Events of one connection are
// handled in submission order. Returns false if the hub stopped.
func (h *Hub) Dispatch(conn entity.Connection, ev entity.Inbound) bool {
	return h.submit(func(s *state) {
		d, ok := ev.(entity.Disconnect)
		if !ok {
			s.handle(conn, ev)
			return
		}
		if s.disconnect(conn.ID(), d.Reason) && h.grace > 0 {
			h.scheduleExpiry(conn.ID())
		}
	})
}

func (h *Hub) scheduleExpiry(connID string) {
	time.AfterFunc(h.grace, func() {
		h.submit(func(s *state) { s.expire(connID) })
	})
}

// Members returns the member list of room in join order.
func (h *Hub) Members(ctx context.Context, room string) ([]entity.RoomUser, error) {
	reply := make(chan []entity.RoomUser, 1)
	if !h.submit(func(s *state) { reply <- s.memberList(room) }) {
		return nil, ErrHubStopped
	}
	select {
	case users := <-reply:
		return users, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stats returns the live counters of the hub.
func (h *Hub) Stats(ctx context.Context) (entity.Metrics, error) {
	reply := make(chan entity.Metrics, 1)
	if !h.submit(func(s *state) { reply <- s.stats() }) {
		return entity.Metrics{}, ErrHubStopped
	}
	select {
	case m := <-reply:
		return m, nil
	case <-ctx.Done():
		return entity.Metrics{}, ctx.Err()
	}
}
