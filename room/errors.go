package room

import "errors"

var (
	ErrAlreadyInRoom = errors.New("already in a room")
	ErrNameTaken     = errors.New("room name already in use")
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrNotInRoom     = errors.New("not in any room")
	ErrInvalidRoom   = errors.New("room needs a name and a positive capacity")
)
