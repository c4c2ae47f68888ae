package client

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"roomsync/gateway"
	"roomsync/mirror"
	"roomsync/protocol"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Client is a remote participant connected to the room server.
type Client struct {
	*Receiver
	conn      *websocket.Conn
	writeLock sync.Mutex
}

// Dial connects to the server's websocket endpoint. A non-empty resumeKey
// asks the server for the handle we held before.
func Dial(ctx context.Context, endpoint string, resumeKey string) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if resumeKey != "" {
		q := u.Query()
		q.Set("resumeKey", resumeKey)
		u.RawQuery = q.Encode()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return &Client{Receiver: NewReceiver(mirror.New()), conn: conn}, nil
}

// Gateway returns the room operations for this client. They are always
// forwarded to the server.
func (c *Client) Gateway() gateway.Gateway {
	self, _ := c.Mirror().Self()
	return gateway.New(self, nil, c)
}

func (c *Client) Send(msg any) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Run reads server messages until the connection ends or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if err := c.Handle(data); err != nil {
			if errors.Is(err, protocol.ErrUndefinedType) {
				continue
			}
			log.Warn().Err(err).Str("module", "client").Msg("dropping server message")
		}
	}
}

func (c *Client) Close() error {
	c.writeLock.Lock()
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeLock.Unlock()
	return c.conn.Close()
}
