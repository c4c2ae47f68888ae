package protocol

import (
	"errors"

	"roomsync/room"
)

var reasons = []struct {
	code string
	err  error
}{
	{"alreadyInRoom", room.ErrAlreadyInRoom},
	{"nameTaken", room.ErrNameTaken},
	{"roomNotFound", room.ErrRoomNotFound},
	{"roomFull", room.ErrRoomFull},
	{"notInRoom", room.ErrNotInRoom},
	{"invalidRoom", room.ErrInvalidRoom},
}

// Reason maps a directory error to its wire code.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return "unknown"
}

// ReasonError maps a wire code back to the directory error.
func ReasonError(code string) error {
	for _, r := range reasons {
		if r.code == code {
			return r.err
		}
	}
	return errors.New(code)
}
