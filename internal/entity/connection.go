// Structure of Connection and Room membership Models in Codepad.

package entity

import "time"

// Connection is one live transport session, distinct from a user identity.
type Connection interface {
	// Unique per session
	ID() string
	// Queues a frame for delivery, fails if the connection can't take it.
	Send(data []byte) error
	// Terminates the transport. Must not block and must be a no-op once closed.
	Close() error
}

// Member is the Room Membership Index entry of one connection.
type Member struct {
	ConnID      string    `json:"id"`
	Room        string    `json:"room"`
	DisplayName string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Joined      time.Time `json:"joined"`
}

// RoomUser is one entry of the userList event.
type RoomUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DisplayNameOf returns the name shown to other room members, email wins over name.
func DisplayNameOf(name, email string) string {
	if email != "" {
		return email
	}
	return name
}
