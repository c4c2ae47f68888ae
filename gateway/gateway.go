package gateway

import (
	"roomsync/protocol"
	"roomsync/room"
)

// Gateway is the room surface seen by one participant. Whether the calls run
// on this process or on the server is hidden behind it.
type Gateway interface {
	CreateRoom(name string, capacity int) error
	JoinRoom(name string) error
	LeaveRoom() error
	RequestRoomList() error
}

// Link carries requests from a client to the server.
type Link interface {
	Send(msg any) error
}

// New returns a gateway that executes locally when this process holds the
// authority and forwards over link otherwise.
func New(self room.Handle, authority *Authority, link Link) Gateway {
	if authority != nil {
		return &local{self: self, authority: authority}
	}
	return &remote{link: link}
}

type local struct {
	self      room.Handle
	authority *Authority
}

func (l *local) CreateRoom(name string, capacity int) error {
	return l.authority.CreateRoom(l.self, name, capacity)
}

func (l *local) JoinRoom(name string) error {
	return l.authority.JoinRoom(l.self, name)
}

func (l *local) LeaveRoom() error {
	return l.authority.LeaveRoom(l.self)
}

func (l *local) RequestRoomList() error {
	return l.authority.RequestRoomList(l.self)
}

// remote only reports transport failures. The outcome arrives later as a
// snapshot or a rejection.
type remote struct {
	link Link
}

func (r *remote) CreateRoom(name string, capacity int) error {
	return r.link.Send(protocol.NewCreateRoom(name, capacity))
}

func (r *remote) JoinRoom(name string) error {
	return r.link.Send(protocol.NewJoinRoom(name))
}

func (r *remote) LeaveRoom() error {
	return r.link.Send(protocol.NewLeaveRoom())
}

func (r *remote) RequestRoomList() error {
	return r.link.Send(protocol.NewRequestRoomList())
}
