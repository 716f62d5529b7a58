// Room state of Codepad: the connection registry, the membership table and the
// sessions they point at. Only the hub goroutine touches a state.

package room

import (
	"Codepad/internal/entity"
	"Codepad/pkg/log"
	"time"
)

// PresenceTracker is told when a user starts or stops being present in a room.
type PresenceTracker interface {
	Initialize(userID, scopeID string)
	Cleanup(userID, scopeID string)
}

// Snapshotter mirrors membership changes somewhere outside the process.
type Snapshotter interface {
	MemberJoined(member entity.Member)
	MemberLeft(room, connID string)
}

type phase int

const (
	phaseConnected phase = iota
	phaseDisconnecting
)

func (p phase) String() string {
	if p == phaseDisconnecting {
		return "DISCONNECTING"
	}
	return "CONNECTED"
}

// session is the hub's view of one transport connection.
type session struct {
	conn   entity.Connection
	userID string
	phase  phase
	// closed by the server because the same user connected again
	evicted bool
	// presence channel held by this session, if any
	presenceUser  string
	presenceScope string
}

type state struct {
	logger    log.Logger
	now       func() time.Time
	sessions  map[string]*session
	registry  *registry
	members   *membership
	presence  PresenceTracker
	snapshots Snapshotter

	evictions int64
	relayed   int64
	peak      int
}

func newState(logger log.Logger, now func() time.Time, presence PresenceTracker, snapshots Snapshotter) *state {
	if presence == nil {
		presence = noopPresence{}
	}
	if snapshots == nil {
		snapshots = noopSnapshots{}
	}
	return &state{
		logger:    logger,
		now:       now,
		sessions:  make(map[string]*session),
		registry:  newRegistry(),
		members:   newMembership(),
		presence:  presence,
		snapshots: snapshots,
	}
}

func (s *state) connect(conn entity.Connection) {
	if _, ok := s.sessions[conn.ID()]; ok {
		s.logger.Warn().Str("conn_id", conn.ID()).Msg("Connection registered twice")
		return
	}
	s.sessions[conn.ID()] = &session{conn: conn}
	if active := s.activeConnections(); active > s.peak {
		s.peak = active
	}
	s.logger.Debug().Str("conn_id", conn.ID()).Msg("Connection opened")
}

// handle applies one inbound event of conn.
func (s *state) handle(conn entity.Connection, ev entity.Inbound) {
	sess, ok := s.sessions[conn.ID()]
	if !ok {
		s.logger.Warn().Str("conn_id", conn.ID()).Str("event", string(ev.Kind())).Msg("Event from unknown connection dropped")
		return
	}
	if sess.phase != phaseConnected {
		// Frames read before the transport went away must not act anymore.
		if d, ok := ev.(entity.Disconnect); ok {
			s.disconnect(conn.ID(), d.Reason)
			return
		}
		s.logger.Debug().Str("conn_id", conn.ID()).Str("event", string(ev.Kind())).Str("phase", sess.phase.String()).Msg("Event from closing connection dropped")
		return
	}
	switch ev := ev.(type) {
	case entity.EnterRoom:
		s.join(sess, ev)
	case entity.ChatMessage:
		s.relayMessage(sess, ev)
	case entity.Activity:
		s.relayActivity(sess, ev)
	case entity.Disconnect:
		s.disconnect(conn.ID(), ev.Reason)
	default:
		s.logger.Error().Str("event", string(ev.Kind())).Msg("Unhandled event kind")
	}
}

// registerConnection makes sess the only live connection of userID, closing the one it replaces.
func (s *state) registerConnection(userID string, sess *session) {
	connID := sess.conn.ID()
	if sess.userID != "" && sess.userID != userID {
		// Same socket, different identity: give up the old one.
		if cur, ok := s.registry.lookup(sess.userID); ok && cur == connID {
			s.registry.release(sess.userID)
		}
	}
	sess.userID = userID

	replaced, ok := s.registry.register(userID, connID)
	if !ok {
		return
	}
	old, exists := s.sessions[replaced]
	if !exists || old.phase != phaseConnected {
		return
	}
	// Fire and forget, the evicted transport reports its own disconnect later.
	// Until then the session is closing and whatever it still sends is dropped.
	old.phase = phaseDisconnecting
	old.evicted = true
	if err := old.conn.Close(); err != nil {
		s.logger.Debug().Err(err).Str("conn_id", replaced).Msg("Closing evicted connection failed")
	}
	s.evictions++
	s.logger.Info().Str("user_id", userID).Str("evicted_conn_id", replaced).Str("conn_id", connID).Msg("Evicted previous connection of user")
}

// join moves sess into ev.Room under its display identity.
func (s *state) join(sess *session, ev entity.EnterRoom) {
	if ev.Room == "" {
		return
	}
	connID := sess.conn.ID()
	if ev.UserID != "" {
		s.registerConnection(ev.UserID, sess)
	} else if sess.userID != "" {
		if cur, ok := s.registry.lookup(sess.userID); ok && cur == connID {
			s.registry.release(sess.userID)
		}
		sess.userID = ""
	}

	if prev, ok := s.members.get(connID); ok && prev.Room != ev.Room {
		s.members.leave(connID)
		s.snapshots.MemberLeft(prev.Room, connID)
		s.logger.Info().Str("room", prev.Room).Str("name", prev.DisplayName).Str("conn_id", connID).Msg("Member left room")
		s.broadcastMemberList(prev.Room)
	}

	member := entity.Member{
		ConnID:      connID,
		Room:        ev.Room,
		DisplayName: entity.DisplayNameOf(ev.Name, ev.Email),
		Email:       ev.Email,
		UserID:      sess.userID,
		Joined:      s.now(),
	}
	s.members.set(member)
	// set keeps the original join time on a rejoin
	member, _ = s.members.get(connID)
	s.snapshots.MemberJoined(member)
	s.holdPresence(sess, sess.userID, ev.Room)
	s.logger.Info().Str("room", ev.Room).Str("name", member.DisplayName).Str("conn_id", connID).Msg("Member joined room")

	s.broadcastMemberList(ev.Room)
}

// holdPresence swaps the presence channel held by sess for (userID, scope).
// The new channel is opened first so a room move never reports the user offline.
func (s *state) holdPresence(sess *session, userID, scope string) {
	if sess.presenceUser == userID && sess.presenceScope == scope {
		return
	}
	if userID != "" {
		s.presence.Initialize(userID, scope)
	}
	s.releasePresence(sess)
	if userID != "" {
		sess.presenceUser, sess.presenceScope = userID, scope
	}
}

func (s *state) releasePresence(sess *session) {
	if sess.presenceUser == "" {
		return
	}
	s.presence.Cleanup(sess.presenceUser, sess.presenceScope)
	sess.presenceUser, sess.presenceScope = "", ""
}

func (s *state) activeConnections() int {
	n := 0
	for _, sess := range s.sessions {
		if sess.phase == phaseConnected {
			n++
		}
	}
	return n
}

func (s *state) stats() entity.Metrics {
	return entity.Metrics{
		ActiveConnections: s.activeConnections(),
		ActiveRooms:       s.members.roomCount(),
		PeakConnections:   s.peak,
		Evictions:         s.evictions,
		MessagesRelayed:   s.relayed,
	}
}

// closeAll closes every transport, used when the hub stops.
func (s *state) closeAll() {
	for id, sess := range s.sessions {
		if err := sess.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Str("conn_id", id).Msg("Closing connection failed")
		}
	}
}

type noopPresence struct{}

func (noopPresence) Initialize(string, string) {}
func (noopPresence) Cleanup(string, string)    {}

type noopSnapshots struct{}

func (noopSnapshots) MemberJoined(entity.Member) {}
func (noopSnapshots) MemberLeft(string, string)  {}
