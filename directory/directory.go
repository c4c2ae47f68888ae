package directory

import (
	"slices"
	"sync"

	"roomsync/anchor"
	"roomsync/room"

	"github.com/rs/zerolog/log"
)

// Placer assigns anchors and moves entities onto them.
type Placer interface {
	Create(roomID int) anchor.Anchor
	Relocate(h room.Handle, a anchor.Anchor)
	RelocateToNeutral(h room.Handle)
}

// Change is published after every successful mutation. Table is the state
// right after the mutation and Version orders changes.
type Change struct {
	Event     room.Event
	Table     room.Table
	Version   uint64
	Destroyed bool
}

type record struct {
	room   room.Room
	anchor anchor.Anchor
}

// Directory is the authoritative room table. All mutations are serialized by
// one lock, and changes are published in the order they were applied.
type Directory struct {
	placer   Placer
	rooms    map[string]*record
	byMember map[room.Handle]string
	version  uint64
	lock     sync.RWMutex

	// held while publishing so listeners observe changes in version order
	publishLock sync.Mutex
	changes     room.Feed[Change]
}

func New(placer Placer) *Directory {
	return &Directory{
		placer:   placer,
		rooms:    make(map[string]*record),
		byMember: make(map[room.Handle]string),
	}
}

// Subscribe registers fn for every future change. Listeners run
// synchronously and must not mutate the directory.
func (d *Directory) Subscribe(fn func(Change)) func() {
	return d.changes.Subscribe(fn)
}

func (d *Directory) CreateRoom(requester room.Handle, name string, capacity int) (room.Room, error) {
	if name == "" || capacity < 1 {
		return room.Room{}, room.ErrInvalidRoom
	}
	d.lock.Lock()
	if _, ok := d.byMember[requester]; ok {
		d.lock.Unlock()
		return room.Room{}, room.ErrAlreadyInRoom
	}
	if _, ok := d.rooms[name]; ok {
		d.lock.Unlock()
		return room.Room{}, room.ErrNameTaken
	}
	ids := make(map[int]struct{}, len(d.rooms))
	for _, rec := range d.rooms {
		ids[rec.room.ID] = struct{}{}
	}
	rec := &record{room: room.Room{
		ID:       room.LowestFreeID(ids),
		Name:     name,
		Capacity: capacity,
		Members:  []room.Handle{requester},
	}}
	rec.anchor = d.placer.Create(rec.room.ID)
	d.rooms[name] = rec
	d.byMember[requester] = name
	d.placer.Relocate(requester, rec.anchor)
	created := rec.room.Clone()

	log.Debug().Str("module", "directory").Int("id", created.ID).Str("room", name).Uint64("handle", uint64(requester)).Msg("room created")
	d.publishAndUnlock(room.Event{Kind: room.Joined, Handle: requester, Room: name}, false)
	return created, nil
}

func (d *Directory) JoinRoom(requester room.Handle, name string) (room.Room, error) {
	d.lock.Lock()
	if _, ok := d.byMember[requester]; ok {
		d.lock.Unlock()
		return room.Room{}, room.ErrAlreadyInRoom
	}
	rec, ok := d.rooms[name]
	if !ok {
		d.lock.Unlock()
		return room.Room{}, room.ErrRoomNotFound
	}
	if rec.room.Full() {
		d.lock.Unlock()
		return room.Room{}, room.ErrRoomFull
	}
	rec.room.Members = append(rec.room.Members, requester)
	d.byMember[requester] = name
	d.placer.Relocate(requester, rec.anchor)
	joined := rec.room.Clone()

	log.Debug().Str("module", "directory").Str("room", name).Uint64("handle", uint64(requester)).Int("members", len(joined.Members)).Msg("member joined")
	d.publishAndUnlock(room.Event{Kind: room.Joined, Handle: requester, Room: name}, false)
	return joined, nil
}

// LeaveRoom removes requester from its room and destroys the room once it is
// empty. It returns the name of the room that was left.
func (d *Directory) LeaveRoom(requester room.Handle) (string, error) {
	d.lock.Lock()
	name, ok := d.byMember[requester]
	if !ok {
		d.lock.Unlock()
		return "", room.ErrNotInRoom
	}
	rec := d.rooms[name]
	if i := slices.Index(rec.room.Members, requester); i >= 0 {
		rec.room.Members = slices.Delete(rec.room.Members, i, i+1)
	}
	delete(d.byMember, requester)
	destroyed := len(rec.room.Members) == 0
	if destroyed {
		delete(d.rooms, name)
	}
	d.placer.RelocateToNeutral(requester)

	log.Debug().Str("module", "directory").Str("room", name).Uint64("handle", uint64(requester)).Bool("destroyed", destroyed).Msg("member left")
	d.publishAndUnlock(room.Event{Kind: room.Left, Handle: requester, Room: name}, destroyed)
	return name, nil
}

// publishAndUnlock must be called with the write lock held. The publish lock
// is taken before the write lock is released so that changes reach
// listeners in version order.
func (d *Directory) publishAndUnlock(ev room.Event, destroyed bool) {
	d.version++
	change := Change{Event: ev, Table: d.tableLocked(), Version: d.version, Destroyed: destroyed}
	d.publishLock.Lock()
	d.lock.Unlock()
	defer d.publishLock.Unlock()
	d.changes.Publish(change)
}

func (d *Directory) tableLocked() room.Table {
	table := make(room.Table, 0, len(d.rooms))
	for _, rec := range d.rooms {
		table = append(table, rec.room.Clone())
	}
	slices.SortFunc(table, func(a, b room.Room) int { return a.ID - b.ID })
	return table
}

func (d *Directory) ListRooms() room.Table {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.tableLocked()
}

// Snapshot returns the table together with the version it reflects.
func (d *Directory) Snapshot() (room.Table, uint64) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.tableLocked(), d.version
}

func (d *Directory) FindRoomByMember(h room.Handle) (room.Room, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	name, ok := d.byMember[h]
	if !ok {
		return room.Room{}, false
	}
	return d.rooms[name].room.Clone(), true
}

func (d *Directory) MemberIndex(name string, h room.Handle) int {
	d.lock.RLock()
	defer d.lock.RUnlock()
	rec, ok := d.rooms[name]
	if !ok {
		return 0
	}
	if i := slices.Index(rec.room.Members, h); i > 0 {
		return i
	}
	return 0
}

// Room returns the named room with its anchor.
func (d *Directory) Room(name string) (room.Room, anchor.Anchor, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	rec, ok := d.rooms[name]
	if !ok {
		return room.Room{}, anchor.Anchor{}, false
	}
	return rec.room.Clone(), rec.anchor, true
}

func (d *Directory) Version() uint64 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.version
}
