package client

import (
	"fmt"
	"sync"

	"roomsync/mirror"
	"roomsync/protocol"
	"roomsync/room"
	"roomsync/snapshot"
)

// Notice is a server message that is not room state: a joined or left
// notification, or the rejection of one of our own requests.
type Notice struct {
	Type   string
	Handle room.Handle
	Room   string
	Op     string
	Err    error
}

// Receiver applies server messages to a Mirror. It does not care which
// transport delivered them.
type Receiver struct {
	mirror    *mirror.Mirror
	notices   room.Feed[Notice]
	resumeKey string
	lock      sync.RWMutex
	ready     chan struct{}
	readyOnce sync.Once
}

func NewReceiver(m *mirror.Mirror) *Receiver {
	return &Receiver{mirror: m, ready: make(chan struct{})}
}

func (r *Receiver) Mirror() *mirror.Mirror {
	return r.mirror
}

// Ready is closed once the server has told us our handle.
func (r *Receiver) Ready() <-chan struct{} {
	return r.ready
}

func (r *Receiver) ResumeKey() string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.resumeKey
}

func (r *Receiver) Subscribe(fn func(Notice)) func() {
	return r.notices.Subscribe(fn)
}

func (r *Receiver) Handle(data []byte) error {
	msg, err := protocol.ParseServerMessage(data)
	if err != nil {
		return err
	}
	switch m := msg.(type) {
	case protocol.WelcomeMessage:
		r.setResumeKey(m.ResumeKey)
		r.mirror.SetSelf(m.Handle)
		r.readyOnce.Do(func() { close(r.ready) })
	case protocol.ResumeKeyMessage:
		r.setResumeKey(m.ResumeKey)
	case protocol.RoomSnapshotMessage:
		table, err := snapshot.Decode(m.Table)
		if err != nil {
			return fmt.Errorf("room snapshot: %w", err)
		}
		r.mirror.OnSnapshot(table)
	case protocol.JoinedMessage:
		r.notices.Publish(Notice{Type: protocol.TypeJoined, Handle: m.Handle, Room: m.Room})
	case protocol.LeftMessage:
		r.notices.Publish(Notice{Type: protocol.TypeLeft, Handle: m.Handle, Room: m.Room})
	case protocol.RejectedMessage:
		self, _ := r.mirror.Self()
		r.notices.Publish(Notice{Type: protocol.TypeRejected, Handle: self, Room: m.Room, Op: m.Op, Err: protocol.ReasonError(m.Reason)})
	}
	return nil
}

func (r *Receiver) setResumeKey(key string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.resumeKey = key
}
