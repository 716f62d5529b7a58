// Presence notifier of Codepad.
// Tracks which users are online and fans every change out to in-process subscribers.

package presence

import (
	"Codepad/pkg/log"
	"sync"
	"time"
)

// Callback receives presence changes of any user.
// It runs synchronously on the notifying goroutine, so it must not block
// and must not call UpdatePresence, Initialize or Cleanup.
type Callback func(userID string, online bool)

type subscriber struct {
	id uint64
	cb Callback
}

type channelKey struct {
	userID  string
	scopeID string
}

// channel is one (user, scope) presence channel kept alive by a heartbeat.
type channel struct {
	refs int
	stop chan struct{}
}

// Notifier is the process-wide presence map. Construct one with NewNotifier and
// pass it to whoever needs it; nothing in Codepad keeps a package level instance.
type Notifier struct {
	logger    log.Logger
	heartbeat time.Duration

	// emit orders map mutations together with their delivery.
	emit sync.Mutex
	// mu guards the fields below.
	mu       sync.Mutex
	online   map[string]bool
	subs     []subscriber
	nextID   uint64
	channels map[channelKey]*channel
}

// NewNotifier returns an empty Notifier whose channels re-assert online every heartbeat.
func NewNotifier(logger log.Logger, heartbeat time.Duration) *Notifier {
	return &Notifier{
		logger:    logger,
		heartbeat: heartbeat,
		online:    make(map[string]bool),
		channels:  make(map[channelKey]*channel),
	}
}

// Initialize opens the presence channel of userID in scopeID, or takes one more
// reference on it when it is already open. Opening marks the user online.
func (n *Notifier) Initialize(userID, scopeID string) {
	if userID == "" {
		return
	}
	key := channelKey{userID, scopeID}

	n.emit.Lock()
	defer n.emit.Unlock()

	n.mu.Lock()
	if ch, ok := n.channels[key]; ok {
		ch.refs++
		n.mu.Unlock()
		return
	}
	ch := &channel{refs: 1, stop: make(chan struct{})}
	n.channels[key] = ch
	n.online[userID] = true
	subs := n.snapshotSubs()
	n.mu.Unlock()

	go n.beat(key, ch)
	n.logger.Debug().Str("user_id", userID).Str("scope_id", scopeID).Msg("Presence channel opened")
	n.deliver(subs, userID, true)
}

// beat re-asserts online for as long as ch stays open.
func (n *Notifier) beat(key channelKey, ch *channel) {
	ticker := time.NewTicker(n.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ch.stop:
			return
		case <-ticker.C:
			n.emit.Lock()
			n.mu.Lock()
			if n.channels[key] != ch {
				n.mu.Unlock()
				n.emit.Unlock()
				return
			}
			n.online[key.userID] = true
			subs := n.snapshotSubs()
			n.mu.Unlock()
			n.deliver(subs, key.userID, true)
			n.emit.Unlock()
		}
	}
}

// Subscribe registers cb and returns the function removing it again.
func (n *Notifier) Subscribe(cb Callback) (unsubscribe func()) {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscriber{id: id, cb: cb})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.subs {
				if s.id == id {
					n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// UpdatePresence sets the status of userID and notifies every subscriber in subscription order.
// A panicking subscriber is logged and skipped.
func (n *Notifier) UpdatePresence(userID string, online bool) {
	n.emit.Lock()
	defer n.emit.Unlock()

	n.mu.Lock()
	n.online[userID] = online
	subs := n.snapshotSubs()
	n.mu.Unlock()

	n.deliver(subs, userID, online)
}

// Cleanup releases one reference on the (userID, scopeID) channel. The last
// reference stops its heartbeat and reports the user offline, unless the user
// still holds a channel in another scope. Releasing the last channel of the
// process clears the whole presence map.
func (n *Notifier) Cleanup(userID, scopeID string) {
	key := channelKey{userID, scopeID}

	n.emit.Lock()
	defer n.emit.Unlock()

	n.mu.Lock()
	ch, ok := n.channels[key]
	if !ok {
		n.mu.Unlock()
		return
	}
	ch.refs--
	if ch.refs > 0 {
		n.mu.Unlock()
		return
	}
	delete(n.channels, key)
	close(ch.stop)

	held := false
	for k := range n.channels {
		if k.userID == userID {
			held = true
			break
		}
	}
	var subs []subscriber
	if !held {
		n.online[userID] = false
		subs = n.snapshotSubs()
	}
	n.mu.Unlock()

	n.logger.Debug().Str("user_id", userID).Str("scope_id", scopeID).Bool("still_held", held).Msg("Presence channel closed")
	if held {
		return
	}
	n.deliver(subs, userID, false)

	n.mu.Lock()
	if len(n.channels) == 0 {
		n.online = make(map[string]bool)
	}
	n.mu.Unlock()
}

// Close stops every heartbeat without notifying anybody. Used on shutdown.
func (n *Notifier) Close() {
	n.emit.Lock()
	defer n.emit.Unlock()
	n.mu.Lock()
	defer n.mu.Unlock()
	for key, ch := range n.channels {
		close(ch.stop)
		delete(n.channels, key)
	}
}

// IsOnline reports the last known status of userID.
func (n *Notifier) IsOnline(userID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online[userID]
}

// Snapshot returns a copy of the presence map.
func (n *Notifier) Snapshot() map[string]bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]bool, len(n.online))
	for k, v := range n.online {
		out[k] = v
	}
	return out
}

// Must hold n.mu.
func (n *Notifier) snapshotSubs() []subscriber {
	out := make([]subscriber, len(n.subs))
	copy(out, n.subs)
	return out
}

func (n *Notifier) deliver(subs []subscriber, userID string, online bool) {
	for _, s := range subs {
		n.call(s, userID, online)
	}
}

func (n *Notifier) call(s subscriber, userID string, online bool) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error().Interface("panic", r).Uint64("subscriber", s.id).Str("user_id", userID).Msg("Presence subscriber panicked")
		}
	}()
	s.cb(userID, online)
}
