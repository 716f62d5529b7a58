package room

// registry is the User Connection Index: at most one live connection per user.
type registry struct {
	byUser map[string]string // user id -> connection id
}

func newRegistry() *registry {
	return &registry{byUser: make(map[string]string)}
}

// register points userID at connID and returns the connection it replaced, if any.
// The caller is in charge of closing the replaced connection.
func (r *registry) register(userID, connID string) (replaced string, ok bool) {
	if userID == "" {
		return "", false
	}
	prev, exists := r.byUser[userID]
	r.byUser[userID] = connID
	if exists && prev != connID {
		return prev, true
	}
	return "", false
}

// release drops the entry of userID. Idempotent.
func (r *registry) release(userID string) {
	delete(r.byUser, userID)
}

func (r *registry) lookup(userID string) (string, bool) {
	connID, ok := r.byUser[userID]
	return connID, ok
}

func (r *registry) len() int {
	return len(r.byUser)
}
