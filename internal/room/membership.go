package room

import (
	"Codepad/internal/entity"
	"sort"
)

type memberEntry struct {
	entity.Member
	// join sequence, orders member lists
	seq uint64
}

// membership is the Room Membership Index: each connection is in zero or one room.
// Entries are keyed by connection, so the same user may briefly show up twice.
type membership struct {
	entries map[string]*memberEntry
	rooms   map[string]int // room -> member count
	seq     uint64
}

func newMembership() *membership {
	return &membership{
		entries: make(map[string]*memberEntry),
		rooms:   make(map[string]int),
	}
}

func (m *membership) get(connID string) (entity.Member, bool) {
	e, ok := m.entries[connID]
	if !ok {
		return entity.Member{}, false
	}
	return e.Member, true
}

// set inserts or overwrites the entry of member.ConnID. A connection re-entering
// the room it is already in keeps its place in the member list.
func (m *membership) set(member entity.Member) {
	if e, ok := m.entries[member.ConnID]; ok {
		if e.Room == member.Room {
			member.Joined = e.Joined
			e.Member = member
			return
		}
		m.remove(member.ConnID)
	}
	m.seq++
	m.entries[member.ConnID] = &memberEntry{Member: member, seq: m.seq}
	m.rooms[member.Room]++
}

// leave removes the entry of connID and returns the room it was in.
func (m *membership) leave(connID string) (string, bool) {
	e, ok := m.entries[connID]
	if !ok {
		return "", false
	}
	m.remove(connID)
	return e.Room, true
}

func (m *membership) remove(connID string) {
	e := m.entries[connID]
	delete(m.entries, connID)
	if m.rooms[e.Room]--; m.rooms[e.Room] <= 0 {
		delete(m.rooms, e.Room)
	}
}

// inRoom lists the members of room in join order.
func (m *membership) inRoom(room string) []entity.Member {
	if m.rooms[room] == 0 {
		return nil
	}
	entries := make([]*memberEntry, 0, m.rooms[room])
	for _, e := range m.entries {
		if e.Room == room {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]entity.Member, len(entries))
	for i, e := range entries {
		out[i] = e.Member
	}
	return out
}

func (m *membership) roomCount() int {
	return len(m.rooms)
}
