// Structure of Presence Model in Codepad.

package entity

// PresenceEvent is delivered to presence subscribers.
type PresenceEvent struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}

// Saved in DB as presence:<user_id>
type PresenceRecord struct {
	UserID   string `json:"user_id" redis:"user_id"`
	Online   bool   `json:"online" redis:"online"`
	LastSeen int64  `json:"last_seen" redis:"last_seen"`
}
