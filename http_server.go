package main

import (
	"errors"
	"net/http"
	"time"

	"roomsync/anchor"
	"roomsync/gateway"
	"roomsync/protocol"
	"roomsync/room"
	"roomsync/snapshot"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gobwas/ws"
)

type HTTPHandler struct {
	Server    *Server
	Authority *gateway.Authority
	Entities  *anchor.Entities
	Resume    *ResumeJWT
	Observers *Observers
	// nil unless the server also holds a seat
	Host *HostSeat
}

func NewHTTPServer(h *HTTPHandler, config *Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowCredentials: false,
	}))
	r.Use(middleware.RealIP)
	r.Use(httprate.Limit(config.RateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint)))
	r.Use(middleware.Heartbeat("/"))

	r.Get("/ws", h.websocket())
	r.Get("/rooms", h.getRooms())
	r.Get("/rooms/events", h.getRoomEventStream())
	r.Get("/rooms/{name}", h.getRoom())
	if h.Host != nil {
		r.Route("/host", h.Host.routes)
	}
	return r
}

func (h *HTTPHandler) websocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requested, resume := h.Resume.HandleFromResumeToken(r.URL.Query().Get("resumeKey"))
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			LogErrorWhileUpgradingHTTP(err)
			return
		}
		peer := NewPeerWebsocket(conn)
		defer peer.Close()

		handle := h.Server.Connect(peer, requested, resume)
		h.Entities.Spawn(handle)
		logger := GetPeerLogger(r.RemoteAddr, handle)
		logger.Connected(resume && requested == handle)
		defer func() {
			h.Authority.Disconnect(handle)
			h.Entities.Despawn(handle)
			h.Server.Disconnect(handle, peer)
			logger.Disconnected()
		}()

		token, _ := h.Resume.GenerateResumeToken(handle)
		if err := peer.SendWelcome(handle, token); err != nil {
			return
		}
		h.Authority.RequestRoomList(handle)

		resumeKeyTicker := time.NewTicker(resumeKeySendFreq)
		closed := make(chan struct{})
		defer func() {
			resumeKeyTicker.Stop()
			close(closed)
		}()
		go func() {
			for {
				select {
				case <-resumeKeyTicker.C:
					if token, err := h.Resume.GenerateResumeToken(handle); err == nil {
						peer.SendResumeKey(token)
					}
				case <-closed:
					return
				}
			}
		}()

		for {
			msg, err := peer.ReadMessage()
			if err != nil {
				if errors.Is(err, protocol.ErrUndefinedType) || errors.Is(err, protocol.ErrMalformed) {
					logger.IgnoredMessage(err)
					continue
				}
				return
			}
			if err := h.Authority.Dispatch(handle, msg); err != nil {
				logger.Rejected(err)
			}
		}
	}
}

func (h *HTTPHandler) getRooms() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := snapshot.Encode(h.Authority.Directory().ListRooms())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "encode failed")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

type roomResponse struct {
	room.Room
	Anchor anchor.Anchor `json:"anchor"`
}

func (h *HTTPHandler) getRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found, a, ok := h.Authority.Directory().Room(chi.URLParam(r, "name"))
		if !ok {
			writeError(w, http.StatusNotFound, protocol.Reason(room.ErrRoomNotFound))
			return
		}
		writeJSON(w, http.StatusOK, roomResponse{Room: found, Anchor: a})
	}
}

func (h *HTTPHandler) getRoomEventStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "HTTP Streaming not supported!", http.StatusBadRequest)
			return
		}
		sendChannel := make(chan []byte, peerQueueSize)
		if !h.Observers.Join(sendChannel) {
			http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		stream := NewObserverStream(w, flusher)

		if table, err := snapshot.Encode(h.Authority.Directory().ListRooms()); err == nil {
			stream.SendTable(table)
		}
	messageLoop:
		for {
			select {
			case msg, more := <-sendChannel:
				if !more {
					stream.SendClosed()
					break messageLoop
				}
				stream.Forward(msg)
			case <-r.Context().Done():
				h.Observers.Leave(sendChannel)
				break messageLoop
			}
		}
	}
}
