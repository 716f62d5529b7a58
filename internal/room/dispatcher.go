package room

import (
	"Codepad/internal/entity"
)

const (
	// DefaultColor is used for messages sent without a color.
	DefaultColor = "#1f2937"
	// TimestampLayout formats the server assigned message timestamp.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// memberList renders the userList payload of room.
func (s *state) memberList(room string) []entity.RoomUser {
	members := s.members.inRoom(room)
	users := make([]entity.RoomUser, 0, len(members))
	for _, m := range members {
		users = append(users, entity.RoomUser{ID: m.ConnID, Name: m.DisplayName})
	}
	return users
}

// broadcastMemberList sends the current member list of room to every member of room.
func (s *state) broadcastMemberList(room string) {
	members := s.members.inRoom(room)
	if len(members) == 0 {
		return
	}
	frame, err := entity.Encode(entity.EventUserList, entity.UserList{Users: s.memberList(room)})
	if err != nil {
		s.logger.Error().Err(err).Str("room", room).Msg("Encoding member list failed")
		return
	}
	for _, m := range members {
		s.send(m.ConnID, frame)
	}
}

// relayMessage fans msg out to the sender's room, sender included.
func (s *state) relayMessage(sess *session, msg entity.ChatMessage) {
	connID := sess.conn.ID()
	member, ok := s.members.get(connID)
	if !ok {
		s.logger.Debug().Str("conn_id", connID).Str("id", msg.ID).Msg("Message from connection outside any room dropped")
		return
	}
	color := msg.Color
	if color == "" {
		color = DefaultColor
	}
	out := entity.OutboundMessage{
		ID:        msg.ID,
		User:      member.DisplayName,
		UserID:    connID,
		Text:      msg.Text,
		Timestamp: s.now().UTC().Format(TimestampLayout),
		Color:     color,
		Room:      member.Room,
	}
	frame, err := entity.Encode(entity.EventMessage, out)
	if err != nil {
		s.logger.Error().Err(err).Str("room", member.Room).Msg("Encoding message failed")
		return
	}
	for _, m := range s.members.inRoom(member.Room) {
		s.send(m.ConnID, frame)
	}
	s.relayed++
}

// relayActivity tells everybody else in the sender's room that the sender is active.
func (s *state) relayActivity(sess *session, ev entity.Activity) {
	connID := sess.conn.ID()
	member, ok := s.members.get(connID)
	if !ok {
		return
	}
	frame, err := entity.Encode(entity.EventActivity, ev.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("room", member.Room).Msg("Encoding activity failed")
		return
	}
	for _, m := range s.members.inRoom(member.Room) {
		if m.ConnID == connID {
			continue
		}
		s.send(m.ConnID, frame)
	}
}

// send delivers frame to a live connection. A connection which can't take the
// frame is closed, its transport then reports the disconnect.
func (s *state) send(connID string, frame []byte) {
	sess, ok := s.sessions[connID]
	if !ok || sess.phase != phaseConnected {
		return
	}
	if err := sess.conn.Send(frame); err != nil {
		s.logger.Warn().Err(err).Str("conn_id", connID).Msg("Send failed, closing connection")
		if err := sess.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Str("conn_id", connID).Msg("Closing connection failed")
		}
	}
}
