package room

import (
	"Codepad/internal/entity"
)

// disconnect handles the transport going away. A final reason, or any reason of an
// evicted session, settles the session right away. Any other reason parks it and
// reports parked=true.
func (s *state) disconnect(connID string, reason entity.DisconnectReason) (parked bool) {
	sess, ok := s.sessions[connID]
	if !ok {
		return false
	}
	s.logger.Info().Str("conn_id", connID).Str("reason", string(reason)).Str("phase", sess.phase.String()).Msg("Connection disconnected")

	if reason.Final() || sess.evicted {
		s.finalize(sess)
		return false
	}
	if sess.phase == phaseDisconnecting {
		return false
	}
	sess.phase = phaseDisconnecting
	return true
}

// expire settles a session still parked once its grace period ran out.
func (s *state) expire(connID string) {
	sess, ok := s.sessions[connID]
	if !ok || sess.phase != phaseDisconnecting {
		return
	}
	s.logger.Info().Str("conn_id", connID).Str("reason", string(entity.ReasonPingTimeout)).Msg("Reconnect grace expired")
	s.finalize(sess)
}

// finalize forgets everything about sess. The vacated room only hears about it
// when the user has no newer connection, a replaced tab leaves silently.
func (s *state) finalize(sess *session) {
	connID := sess.conn.ID()
	delete(s.sessions, connID)

	superseded := false
	if sess.userID != "" {
		if cur, ok := s.registry.lookup(sess.userID); ok && cur != connID {
			superseded = true
		}
	}

	room, inRoom := s.members.leave(connID)
	if inRoom {
		s.snapshots.MemberLeft(room, connID)
	}
	if !superseded {
		if inRoom {
			s.broadcastMemberList(room)
		}
		if sess.userID != "" {
			s.registry.release(sess.userID)
		}
	}
	s.releasePresence(sess)
}
