package main

import (
	"errors"
	"net"
	"sync"

	"roomsync/protocol"
	"roomsync/room"

	"github.com/gobwas/ws/wsutil"
)

const peerQueueSize = 64

var ErrPeerClosed = errors.New("peer closed or queue full")

// PeerWebsocket is one connected participant. Writes go through a bounded
// queue drained by a single goroutine, so messages keep the order in which
// they were queued.
type PeerWebsocket struct {
	conn      net.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewPeerWebsocket(conn net.Conn) *PeerWebsocket {
	p := &PeerWebsocket{
		conn: conn,
		send: make(chan []byte, peerQueueSize),
		done: make(chan struct{}),
	}
	go p.writePump()
	return p
}

// Send queues msg without blocking. It reports false when the peer is closed
// or cannot keep up.
func (p *PeerWebsocket) Send(msg []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.send <- msg:
		return true
	default:
		return false
	}
}

func (p *PeerWebsocket) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.conn.Close()
	})
}

func (p *PeerWebsocket) writePump() {
	for {
		select {
		case msg := <-p.send:
			if err := wsutil.WriteServerText(p.conn, msg); err != nil {
				p.Close()
				return
			}
		case <-p.done:
			return
		}
	}
}

func (p *PeerWebsocket) sendMessage(message any) error {
	encoded, err := protocol.Encode(message)
	if err != nil {
		return err
	}
	if !p.Send(encoded) {
		return ErrPeerClosed
	}
	return nil
}

func (p *PeerWebsocket) SendWelcome(handle room.Handle, resumeKey string) error {
	return p.sendMessage(protocol.NewWelcome(handle, resumeKey))
}

func (p *PeerWebsocket) SendResumeKey(resumeKey string) error {
	return p.sendMessage(protocol.NewResumeKey(resumeKey))
}

// Returns one of the request structs from the protocol package
func (p *PeerWebsocket) ReadMessage() (any, error) {
	msg, err := wsutil.ReadClientText(p.conn)
	if err != nil {
		return nil, err
	}
	return protocol.ParseRequest(msg)
}
