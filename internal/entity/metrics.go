// Structure of Codepad Metrics Model.

package entity

type Metrics struct {
	// Connections currently registered with the hub
	ActiveConnections int `json:"active_connections" redis:"active_connections"`
	// Rooms with at least one member
	ActiveRooms int `json:"active_rooms" redis:"active_rooms"`
	// Highest ActiveConnections seen since start
	PeakConnections int `json:"peak_connections" redis:"peak_connections"`
	// Connections closed because the same user connected again
	Evictions int64 `json:"evictions" redis:"evictions"`
	// Chat messages fanned out to a room
	MessagesRelayed int64 `json:"messages_relayed" redis:"messages_relayed"`
}
