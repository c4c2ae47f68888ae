package room

import "slices"

// Handle identifies a connected participant. The transport assigns it and
// the directory trusts it.
type Handle uint64

// A bounded group of participants. Members keep join order.
type Room struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Capacity int      `json:"capacity"`
	Members  []Handle `json:"members"`
}

func (r Room) Full() bool {
	return len(r.Members) >= r.Capacity
}

func (r Room) Has(h Handle) bool {
	return slices.Contains(r.Members, h)
}

// Returns a copy that shares no memory with r
func (r Room) Clone() Room {
	members := make([]Handle, len(r.Members))
	copy(members, r.Members)
	r.Members = members
	return r
}

// Table is a full view of the live rooms, ordered by id.
type Table []Room

func (t Table) Clone() Table {
	out := make(Table, len(t))
	for i, r := range t {
		out[i] = r.Clone()
	}
	return out
}

func (t Table) Find(name string) (Room, bool) {
	for _, r := range t {
		if r.Name == name {
			return r, true
		}
	}
	return Room{}, false
}

func (t Table) FindByMember(h Handle) (Room, bool) {
	for _, r := range t {
		if r.Has(h) {
			return r, true
		}
	}
	return Room{}, false
}

// MemberIndex returns the position of h in the named room's members, or 0
// when either the room or the member is missing.
func (t Table) MemberIndex(name string, h Handle) int {
	r, ok := t.Find(name)
	if !ok {
		return 0
	}
	if i := slices.Index(r.Members, h); i > 0 {
		return i
	}
	return 0
}

// Query is the read-only surface shared by the authoritative directory and
// the client-side mirror.
type Query interface {
	ListRooms() Table
	FindRoomByMember(h Handle) (Room, bool)
	MemberIndex(name string, h Handle) int
}
