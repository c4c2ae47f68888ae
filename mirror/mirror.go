package mirror

import (
	"sync"

	"roomsync/room"
)

// Mirror is a client's read-only copy of the last room table it received.
type Mirror struct {
	self    room.Handle
	known   bool
	table   room.Table
	current *room.Room
	lock    sync.RWMutex
}

func New() *Mirror {
	return &Mirror{table: room.Table{}}
}

// SetSelf records the local handle once the transport has resolved it.
func (m *Mirror) SetSelf(h room.Handle) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.self = h
	m.known = true
	m.recomputeLocked()
}

func (m *Mirror) Self() (room.Handle, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.self, m.known
}

// OnSnapshot replaces the cached table wholesale.
func (m *Mirror) OnSnapshot(table room.Table) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.table = table.Clone()
	m.recomputeLocked()
}

func (m *Mirror) recomputeLocked() {
	m.current = nil
	if !m.known {
		return
	}
	if r, ok := m.table.FindByMember(m.self); ok {
		m.current = &r
	}
}

func (m *Mirror) CurrentRoom() (room.Room, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.current == nil {
		return room.Room{}, false
	}
	return m.current.Clone(), true
}

func (m *Mirror) ListRooms() room.Table {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.table.Clone()
}

func (m *Mirror) FindRoomByMember(h room.Handle) (room.Room, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	r, ok := m.table.FindByMember(h)
	return r.Clone(), ok
}

func (m *Mirror) MemberIndex(name string, h room.Handle) int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.table.MemberIndex(name, h)
}
