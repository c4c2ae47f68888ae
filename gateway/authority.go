package gateway

import (
	"errors"
	"fmt"

	"roomsync/directory"
	"roomsync/protocol"
	"roomsync/room"

	"github.com/rs/zerolog/log"
)

// Pusher is the part of the broadcaster the gateway drives.
type Pusher interface {
	PushToAll() error
	PushToOne(h room.Handle) error
	Reject(h room.Handle, op string, roomName string, cause error) error
}

// Authority executes room operations on the server on behalf of any caller.
type Authority struct {
	dir    *directory.Directory
	pusher Pusher
}

func NewAuthority(dir *directory.Directory, pusher Pusher) *Authority {
	return &Authority{dir: dir, pusher: pusher}
}

func (a *Authority) Directory() *directory.Directory {
	return a.dir
}

func (a *Authority) CreateRoom(caller room.Handle, name string, capacity int) error {
	_, err := a.dir.CreateRoom(caller, name, capacity)
	return a.finish(caller, protocol.TypeCreateRoom, name, err)
}

func (a *Authority) JoinRoom(caller room.Handle, name string) error {
	_, err := a.dir.JoinRoom(caller, name)
	return a.finish(caller, protocol.TypeJoinRoom, name, err)
}

func (a *Authority) LeaveRoom(caller room.Handle) error {
	name, err := a.dir.LeaveRoom(caller)
	return a.finish(caller, protocol.TypeLeaveRoom, name, err)
}

// RequestRoomList sends the table to the caller alone.
func (a *Authority) RequestRoomList(caller room.Handle) error {
	return a.pusher.PushToOne(caller)
}

// Disconnect removes a dropped client from its room. A client that was in
// no room is not an error here and nothing is sent to it.
func (a *Authority) Disconnect(caller room.Handle) {
	name, err := a.dir.LeaveRoom(caller)
	if errors.Is(err, room.ErrNotInRoom) {
		return
	}
	log.Debug().Str("module", "gateway").Uint64("handle", uint64(caller)).Str("room", name).Msg("left on disconnect")
	if err := a.pusher.PushToAll(); err != nil {
		log.Error().Err(err).Str("module", "gateway").Msg("push after disconnect failed")
	}
}

// Dispatch runs a request parsed by protocol.ParseRequest.
func (a *Authority) Dispatch(caller room.Handle, msg any) error {
	switch m := msg.(type) {
	case protocol.CreateRoomMessage:
		return a.CreateRoom(caller, m.Name, m.Capacity)
	case protocol.JoinRoomMessage:
		return a.JoinRoom(caller, m.Name)
	case protocol.LeaveRoomMessage:
		return a.LeaveRoom(caller)
	case protocol.RequestRoomListMessage:
		return a.RequestRoomList(caller)
	default:
		return fmt.Errorf("%w: %T", protocol.ErrUndefinedType, msg)
	}
}

// finish reports a failure to the caller alone, or pushes the new table to
// everyone after a success.
func (a *Authority) finish(caller room.Handle, op string, name string, err error) error {
	if err != nil {
		if rerr := a.pusher.Reject(caller, op, name, err); rerr != nil {
			log.Debug().Err(rerr).Str("module", "gateway").Uint64("handle", uint64(caller)).Msg("could not deliver rejection")
		}
		return err
	}
	if perr := a.pusher.PushToAll(); perr != nil {
		log.Error().Err(perr).Str("module", "gateway").Msg("snapshot push failed")
	}
	return nil
}
