package main

import (
	"errors"
	"sync"

	"roomsync/room"
)

var ErrUnknownPeer = errors.New("no peer with that handle")

// Peer receives encoded server messages. Send must not block.
type Peer interface {
	Send(msg []byte) bool
	Close()
}

// Server keeps the connected peers by handle and delivers broadcasts to them
// and to the SSE observers.
type Server struct {
	peers     map[room.Handle]Peer
	next      room.Handle
	observers *Observers
	lock      sync.RWMutex
}

func NewServer(observers *Observers) *Server {
	return &Server{peers: make(map[room.Handle]Peer), next: 1, observers: observers}
}

// Connect registers p and returns its handle. A resumed handle is granted
// when nobody holds it, otherwise the peer gets a fresh one.
func (s *Server) Connect(p Peer, requested room.Handle, resume bool) room.Handle {
	s.lock.Lock()
	defer s.lock.Unlock()
	handle := s.next
	if _, taken := s.peers[requested]; resume && requested != hostHandle && !taken {
		handle = requested
	}
	if handle >= s.next {
		s.next = handle + 1
	}
	s.peers[handle] = p
	return handle
}

// Seat registers a peer under a fixed handle.
func (s *Server) Seat(handle room.Handle, p Peer) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.peers[handle] = p
}

// Disconnect removes p, unless the handle has since been given to another peer.
func (s *Server) Disconnect(handle room.Handle, p Peer) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.peers[handle] == p {
		delete(s.peers, handle)
	}
}

func (s *Server) Send(handle room.Handle, msg []byte) error {
	s.lock.RLock()
	p, ok := s.peers[handle]
	s.lock.RUnlock()
	if !ok {
		return ErrUnknownPeer
	}
	if !p.Send(msg) {
		s.drop(handle, p)
		return ErrPeerClosed
	}
	return nil
}

func (s *Server) Broadcast(msg []byte) {
	type slowPeer struct {
		handle room.Handle
		peer   Peer
	}
	var slow []slowPeer
	s.lock.RLock()
	for handle, p := range s.peers {
		if !p.Send(msg) {
			slow = append(slow, slowPeer{handle, p})
		}
	}
	s.lock.RUnlock()
	for _, sp := range slow {
		s.drop(sp.handle, sp.peer)
	}
	if s.observers != nil {
		s.observers.Broadcast(msg)
	}
}

// drop closes a peer that cannot keep up. The handle stays registered until
// its connection handler has finished the disconnect path, so it cannot be
// resumed while that cleanup is still running.
func (s *Server) drop(handle room.Handle, p Peer) {
	LogDroppedPeer(handle)
	p.Close()
}

func (s *Server) Count() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.peers)
}
