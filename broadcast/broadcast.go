package broadcast

import (
	"sync"

	"roomsync/directory"
	"roomsync/protocol"
	"roomsync/room"
	"roomsync/snapshot"

	"github.com/rs/zerolog/log"
)

// Transport delivers encoded server messages.
type Transport interface {
	Send(h room.Handle, msg []byte) error
	Broadcast(msg []byte)
}

// Source is the authoritative table.
type Source interface {
	Snapshot() (room.Table, uint64)
}

// Broadcaster is the only path by which room state reaches clients. A
// snapshot is pushed to all clients only if it is newer than the last one
// they were sent.
type Broadcaster struct {
	source    Source
	transport Transport
	sent      uint64
	lock      sync.Mutex
}

func New(source Source, transport Transport) *Broadcaster {
	return &Broadcaster{source: source, transport: transport}
}

func (b *Broadcaster) PushToAll() error {
	table, version := b.source.Snapshot()
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.pushLocked(table, version)
}

// PushToOne answers a single client without disturbing the others. A table
// older than the last one pushed to all is not sent, since the client
// already holds the newer one.
func (b *Broadcaster) PushToOne(h room.Handle) error {
	table, version := b.source.Snapshot()
	b.lock.Lock()
	defer b.lock.Unlock()
	if version < b.sent {
		log.Debug().Str("module", "broadcast").Uint64("handle", uint64(h)).Uint64("version", version).Uint64("sent", b.sent).Msg("client already has a newer table")
		return nil
	}
	msg, err := snapshotMessage(table)
	if err != nil {
		return err
	}
	return b.transport.Send(h, msg)
}

// Reject reports a failed operation to its requester only.
func (b *Broadcaster) Reject(h room.Handle, op string, roomName string, cause error) error {
	msg, err := protocol.Encode(protocol.NewRejected(op, roomName, cause))
	if err != nil {
		return err
	}
	return b.transport.Send(h, msg)
}

// OnChange pushes the table carried by a directory change, then the
// joined or left notification.
func (b *Broadcaster) OnChange(c directory.Change) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if err := b.pushLocked(c.Table, c.Version); err != nil {
		log.Error().Err(err).Str("module", "broadcast").Msg("snapshot push failed")
	}
	msg, err := protocol.Encode(protocol.NewNotification(c.Event))
	if err != nil {
		log.Error().Err(err).Str("module", "broadcast").Msg("notification encode failed")
		return
	}
	b.transport.Broadcast(msg)
}

func (b *Broadcaster) pushLocked(table room.Table, version uint64) error {
	if version <= b.sent {
		log.Debug().Str("module", "broadcast").Uint64("version", version).Uint64("sent", b.sent).Msg("snapshot already pushed")
		return nil
	}
	msg, err := snapshotMessage(table)
	if err != nil {
		return err
	}
	b.transport.Broadcast(msg)
	b.sent = version
	return nil
}

func snapshotMessage(table room.Table) ([]byte, error) {
	encoded, err := snapshot.Encode(table)
	if err != nil {
		return nil, err
	}
	return protocol.Encode(protocol.NewRoomSnapshot(encoded))
}
