package presence

import (
	"Codepad/pkg/log"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = log.NewWithWriter("test", io.Discard)

// recorder collects presence events delivered to a subscriber.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) cb(userID string, online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := "offline"
	if online {
		state = "online"
	}
	r.events = append(r.events, userID+":"+state)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestUpdatePresenceFanOutSurvivesPanic(t *testing.T) {
	n := NewNotifier(logger, time.Hour)

	var first, third recorder
	n.Subscribe(first.cb)
	n.Subscribe(func(userID string, online bool) { panic("subscriber bug") })
	n.Subscribe(third.cb)

	assert.NotPanics(t, func() { n.UpdatePresence("u1", true) })
	assert.Equal(t, []string{"u1:online"}, first.get())
	assert.Equal(t, []string{"u1:online"}, third.get())
	assert.True(t, n.IsOnline("u1"))
}

func TestSubscribeReceivesAnyUser(t *testing.T) {
	n := NewNotifier(logger, time.Hour)
	var rec recorder
	n.Subscribe(rec.cb)

	n.UpdatePresence("u1", true)
	n.UpdatePresence("u2", true)
	n.UpdatePresence("u1", false)

	assert.Equal(t, []string{"u1:online", "u2:online", "u1:offline"}, rec.get())
	assert.Equal(t, map[string]bool{"u1": false, "u2": true}, n.Snapshot())
}

func TestUnsubscribeRemovesOnlyThatCallback(t *testing.T) {
	n := NewNotifier(logger, time.Hour)
	var kept, removed recorder
	n.Subscribe(kept.cb)
	unsubscribe := n.Subscribe(removed.cb)

	unsubscribe()
	unsubscribe()
	n.UpdatePresence("u1", true)

	assert.Equal(t, []string{"u1:online"}, kept.get())
	assert.Empty(t, removed.get())
}

func TestInitializeIsIdempotentAndRefCounted(t *testing.T) {
	n := NewNotifier(logger, time.Hour)
	var rec recorder
	n.Subscribe(rec.cb)

	n.Initialize("u1", "project-1")
	n.Initialize("u1", "project-1")
	assert.Equal(t, []string{"u1:online"}, rec.get())

	// One reference is still held.
	n.Cleanup("u1", "project-1")
	assert.True(t, n.IsOnline("u1"))
	assert.Equal(t, []string{"u1:online"}, rec.get())

	n.Cleanup("u1", "project-1")
	assert.False(t, n.IsOnline("u1"))
	assert.Equal(t, []string{"u1:online", "u1:offline"}, rec.get())

	// Unknown channel is a no-op.
	n.Cleanup("u1", "project-1")
	assert.Len(t, rec.get(), 2)
}

func TestCleanupKeepsUserOnlineWhileAnotherScopeIsHeld(t *testing.T) {
	n := NewNotifier(logger, time.Hour)
	var rec recorder
	n.Subscribe(rec.cb)

	n.Initialize("u1", "project-1")
	n.Initialize("u1", "project-2")
	n.Cleanup("u1", "project-1")

	assert.True(t, n.IsOnline("u1"))
	assert.Equal(t, []string{"u1:online"}, rec.get())
}

func TestCleanupOfLastChannelClearsMap(t *testing.T) {
	n := NewNotifier(logger, time.Hour)

	n.Initialize("u1", "project-1")
	n.Initialize("u2", "project-1")
	n.UpdatePresence("u3", true)

	n.Cleanup("u1", "project-1")
	assert.Equal(t, map[string]bool{"u1": false, "u2": true, "u3": true}, n.Snapshot())

	n.Cleanup("u2", "project-1")
	assert.Empty(t, n.Snapshot())
}

func TestHeartbeatReassertsOnline(t *testing.T) {
	n := NewNotifier(logger, 10*time.Millisecond)
	var rec recorder
	n.Subscribe(rec.cb)

	n.Initialize("u1", "project-1")
	require.Eventually(t, func() bool { return len(rec.get()) >= 3 }, time.Second, 5*time.Millisecond)

	n.Cleanup("u1", "project-1")
	settled := len(rec.get())
	time.Sleep(50 * time.Millisecond)
	events := rec.get()
	assert.Len(t, events, settled)
	assert.Equal(t, "u1:offline", events[len(events)-1])
}

func TestInitializeIgnoresAnonymous(t *testing.T) {
	n := NewNotifier(logger, time.Hour)
	var rec recorder
	n.Subscribe(rec.cb)

	n.Initialize("", "project-1")
	assert.Empty(t, rec.get())
	assert.Empty(t, n.Snapshot())
}

func TestCloseStopsHeartbeats(t *testing.T) {
	n := NewNotifier(logger, 10*time.Millisecond)
	var rec recorder
	n.Initialize("u1", "project-1")
	n.Subscribe(rec.cb)

	n.Close()
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.get())
}

func TestSubscriberMayUnsubscribeDuringDelivery(t *testing.T) {
	n := NewNotifier(logger, time.Hour)
	var calls int
	var unsubscribe func()
	unsubscribe = n.Subscribe(func(userID string, online bool) {
		calls++
		unsubscribe()
	})

	n.UpdatePresence("u1", true)
	n.UpdatePresence("u1", false)
	assert.Equal(t, 1, calls)
}
