package main

import (
	"errors"
	"net/http"

	"roomsync/anchor"
	"roomsync/client"
	"roomsync/gateway"
	"roomsync/mirror"
	"roomsync/protocol"
	"roomsync/room"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// The server process's own seat when it also plays.
const hostHandle room.Handle = 0

// localPeer hands server messages straight to an in-process receiver.
type localPeer struct {
	receiver *client.Receiver
}

func (l localPeer) Send(msg []byte) bool {
	if err := l.receiver.Handle(msg); err != nil {
		log.Warn().Err(err).Msg("Host seat dropped a message")
	}
	return true
}

func (l localPeer) Close() {}

type HostSeat struct {
	receiver *client.Receiver
	gateway  gateway.Gateway
}

func NewHostSeat(server *Server, authority *gateway.Authority, entities *anchor.Entities) *HostSeat {
	receiver := client.NewReceiver(mirror.New())
	welcome, _ := protocol.Encode(protocol.NewWelcome(hostHandle, ""))
	receiver.Handle(welcome)
	server.Seat(hostHandle, localPeer{receiver})
	entities.Spawn(hostHandle)
	return &HostSeat{
		receiver: receiver,
		gateway:  gateway.New(hostHandle, authority, nil),
	}
}

func (s *HostSeat) Mirror() *mirror.Mirror {
	return s.receiver.Mirror()
}

type createRoomBody struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

func (s *HostSeat) routes(r chi.Router) {
	r.Post("/rooms", func(w http.ResponseWriter, r *http.Request) {
		body, err := decodeJSON[createRoomBody](r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed body")
			return
		}
		s.respond(w, http.StatusCreated, s.gateway.CreateRoom(body.Name, body.Capacity))
	})
	r.Post("/rooms/{name}/join", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, http.StatusOK, s.gateway.JoinRoom(chi.URLParam(r, "name")))
	})
	r.Post("/leave", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, http.StatusOK, s.gateway.LeaveRoom())
	})
	r.Get("/room", func(w http.ResponseWriter, r *http.Request) {
		current, ok := s.Mirror().CurrentRoom()
		if !ok {
			writeError(w, http.StatusNotFound, protocol.Reason(room.ErrNotInRoom))
			return
		}
		writeJSON(w, http.StatusOK, current)
	})
}

// respond answers with the seat's room as mirrored after the operation.
func (s *HostSeat) respond(w http.ResponseWriter, status int, err error) {
	if err != nil {
		writeError(w, errorStatus(err), protocol.Reason(err))
		return
	}
	current, ok := s.Mirror().CurrentRoom()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, status, current)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrInvalidRoom):
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}
