package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"roomsync/room"
)

var ErrCorrupt = errors.New("corrupt room snapshot")

type wire struct {
	Rooms room.Table `json:"rooms"`
}

// Encode serializes the full table. Anchors are not part of the snapshot.
func Encode(table room.Table) ([]byte, error) {
	rooms := make(room.Table, len(table))
	for i, r := range table {
		if r.Members == nil {
			r.Members = []room.Handle{}
		}
		rooms[i] = r
	}
	return json.Marshal(wire{Rooms: rooms})
}

// Decode rebuilds a table and rejects one that could not have come from a
// consistent directory.
func Decode(data []byte) (room.Table, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if w.Rooms == nil {
		w.Rooms = room.Table{}
	}
	if err := validate(w.Rooms); err != nil {
		return nil, err
	}
	return w.Rooms, nil
}

func validate(table room.Table) error {
	ids := make(map[int]bool, len(table))
	names := make(map[string]bool, len(table))
	members := make(map[room.Handle]bool)
	for _, r := range table {
		if r.ID < 1 || ids[r.ID] {
			return fmt.Errorf("%w: bad or duplicate id %d", ErrCorrupt, r.ID)
		}
		if r.Name == "" || names[r.Name] {
			return fmt.Errorf("%w: bad or duplicate name %q", ErrCorrupt, r.Name)
		}
		if r.Capacity < 1 || len(r.Members) > r.Capacity {
			return fmt.Errorf("%w: room %q holds %d of %d", ErrCorrupt, r.Name, len(r.Members), r.Capacity)
		}
		for _, h := range r.Members {
			if members[h] {
				return fmt.Errorf("%w: handle %d in more than one room", ErrCorrupt, h)
			}
			members[h] = true
		}
		ids[r.ID] = true
		names[r.Name] = true
	}
	return nil
}
