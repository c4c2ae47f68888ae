package anchor

import (
	"roomsync/room"

	"github.com/rs/zerolog/log"
)

const DefaultSpacing = 10.0

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Neutral is where entities of participants outside any room stand.
var Neutral = Position{}

// Anchor is the placement shared by every member of one room.
type Anchor struct {
	RoomID   int      `json:"roomId"`
	Position Position `json:"position"`
}

// Mover moves a participant's entity. It reports false when the entity does
// not exist.
type Mover interface {
	Move(h room.Handle, pos Position) bool
}

type Assigner struct {
	mover   Mover
	spacing float64
}

func NewAssigner(mover Mover, spacing float64) *Assigner {
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	return &Assigner{mover: mover, spacing: spacing}
}

// Create places a room along the X axis, proportional to its id, so two live
// rooms never share a position.
func (a *Assigner) Create(roomID int) Anchor {
	return Anchor{RoomID: roomID, Position: Position{X: float64(roomID) * a.spacing}}
}

func (a *Assigner) Relocate(h room.Handle, anchor Anchor) {
	a.move(h, anchor.Position)
}

func (a *Assigner) RelocateToNeutral(h room.Handle) {
	a.move(h, Neutral)
}

func (a *Assigner) move(h room.Handle, pos Position) {
	if a.mover == nil {
		return
	}
	if !a.mover.Move(h, pos) {
		log.Debug().Str("module", "anchor").Uint64("handle", uint64(h)).Msg("no entity to relocate")
	}
}
