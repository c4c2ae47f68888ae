package main

import (
	"fmt"
	"net/http"

	"roomsync/protocol"

	"github.com/rs/zerolog/log"
)

// ObserverStream writes broadcast messages to one SSE spectator.
type ObserverStream struct {
	w http.ResponseWriter
	f http.Flusher
}

func NewObserverStream(w http.ResponseWriter, f http.Flusher) *ObserverStream {
	return &ObserverStream{w, f}
}

// Forward writes an already encoded server message as one event.
func (s ObserverStream) Forward(msg []byte) {
	fmt.Fprintf(s.w, "data: %s\n\n", msg)
	s.f.Flush()
}

// SendTable writes the given table as a room snapshot event.
func (s ObserverStream) SendTable(table []byte) {
	s.send(protocol.NewRoomSnapshot(table))
}

func (s ObserverStream) SendClosed() {
	s.send(protocol.NewStreamClosed())
}

func (s ObserverStream) send(message any) {
	data, err := protocol.Encode(message)
	if err != nil {
		log.Error().Err(err).Msg("Error encoding stream event")
		return
	}
	s.Forward(data)
}
