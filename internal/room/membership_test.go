package room

import (
	"testing"

	"Codepad/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := newRegistry()

	_, ok := r.register("", "c0")
	assert.False(t, ok)
	assert.Equal(t, 0, r.len())

	_, ok = r.register("u", "c1")
	assert.False(t, ok)
	_, ok = r.register("u", "c1")
	assert.False(t, ok, "re-registering the same connection replaces nothing")

	replaced, ok := r.register("u", "c2")
	assert.True(t, ok)
	assert.Equal(t, "c1", replaced)

	connID, _ := r.lookup("u")
	assert.Equal(t, "c2", connID)

	r.release("u")
	r.release("u")
	_, ok = r.lookup("u")
	assert.False(t, ok)
}

func TestMembershipOrderAndCounts(t *testing.T) {
	m := newMembership()
	m.set(entity.Member{ConnID: "a", Room: "r", DisplayName: "A"})
	m.set(entity.Member{ConnID: "b", Room: "r", DisplayName: "B"})
	m.set(entity.Member{ConnID: "c", Room: "s", DisplayName: "C"})
	assert.Equal(t, 2, m.roomCount())

	// moving a to s puts it last there
	m.set(entity.Member{ConnID: "a", Room: "s", DisplayName: "A"})
	assert.Equal(t, []string{"B"}, displayNames(m.inRoom("r")))
	assert.Equal(t, []string{"C", "A"}, displayNames(m.inRoom("s")))

	room, ok := m.leave("b")
	assert.True(t, ok)
	assert.Equal(t, "r", room)
	assert.Nil(t, m.inRoom("r"))
	assert.Equal(t, 1, m.roomCount())

	_, ok = m.leave("b")
	assert.False(t, ok)
}

func displayNames(members []entity.Member) []string {
	out := make([]string, 0, len(members))
	for _, member := range members {
		out = append(out, member.DisplayName)
	}
	return out
}
