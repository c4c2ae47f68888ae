package anchor

import (
	"sync"

	"roomsync/room"
)

// Entities tracks the position of every connected participant's entity.
type Entities struct {
	positions map[room.Handle]Position
	lock      sync.RWMutex
}

func NewEntities() *Entities {
	return &Entities{positions: make(map[room.Handle]Position)}
}

func (e *Entities) Spawn(h room.Handle) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.positions[h] = Neutral
}

func (e *Entities) Despawn(h room.Handle) {
	e.lock.Lock()
	defer e.lock.Unlock()
	delete(e.positions, h)
}

func (e *Entities) Move(h room.Handle, pos Position) bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	if _, ok := e.positions[h]; !ok {
		return false
	}
	e.positions[h] = pos
	return true
}

func (e *Entities) Position(h room.Handle) (Position, bool) {
	e.lock.RLock()
	defer e.lock.RUnlock()
	pos, ok := e.positions[h]
	return pos, ok
}
