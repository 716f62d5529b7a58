package entity

// DisconnectReason tells why a transport went away.
type DisconnectReason string

const (
	// The client closed the socket on purpose.
	ReasonClientClose DisconnectReason = "client namespace disconnect"
	// The server closed the socket, eviction or shutdown.
	ReasonServerClose DisconnectReason = "server namespace disconnect"
	// The underlying connection was closed without a close frame.
	ReasonTransportClose DisconnectReason = "transport close"
	// No pong within the read deadline.
	ReasonPingTimeout DisconnectReason = "ping timeout"
	// Read failed for any other reason, the client is expected to reconnect.
	ReasonTransportError DisconnectReason = "transport error"
	// The client announced it is about to reconnect (close code 4000).
	ReasonClientReconnecting DisconnectReason = "client reconnecting"
)

// Final reports whether the reason ends the session. Other reasons park the
// connection until a later event settles it.
func (r DisconnectReason) Final() bool {
	switch r {
	case ReasonClientClose, ReasonServerClose, ReasonTransportClose, ReasonPingTimeout:
		return true
	}
	return false
}
