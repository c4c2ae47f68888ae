package protocol

import (
	"encoding/json"
	"errors"

	"roomsync/room"
)

// Client to server
const (
	TypeCreateRoom      = "createRoom"
	TypeJoinRoom        = "joinRoom"
	TypeLeaveRoom       = "leaveRoom"
	TypeRequestRoomList = "requestRoomList"
)

// Server to client
const (
	TypeWelcome      = "welcome"
	TypeResumeKey    = "resumeKey"
	TypeRoomSnapshot = "roomSnapshot"
	TypeJoined       = "joined"
	TypeLeft         = "left"
	TypeRejected     = "rejected"
	// sent to stream observers when the server shuts down
	TypeStreamClosed = "close"
)

var (
	ErrUndefinedType = errors.New("incorrect type")
	ErrMalformed     = errors.New("malformed message")
)

type CreateRoomMessage struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type JoinRoomMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type LeaveRoomMessage struct {
	Type string `json:"type"`
}

type RequestRoomListMessage struct {
	Type string `json:"type"`
}

type WelcomeMessage struct {
	Type      string      `json:"type"`
	Handle    room.Handle `json:"handle"`
	ResumeKey string      `json:"resumeKey"`
}

type ResumeKeyMessage struct {
	Type      string `json:"type"`
	ResumeKey string `json:"resumeKey"`
}

// RoomSnapshotMessage carries an encoded room table verbatim.
type RoomSnapshotMessage struct {
	Type  string          `json:"type"`
	Table json.RawMessage `json:"table"`
}

type JoinedMessage struct {
	Type   string      `json:"type"`
	Handle room.Handle `json:"handle"`
	Room   string      `json:"room"`
}

type LeftMessage struct {
	Type   string      `json:"type"`
	Handle room.Handle `json:"handle"`
	Room   string      `json:"room"`
}

// RejectedMessage tells a requester that its operation had no effect.
type RejectedMessage struct {
	Type   string `json:"type"`
	Op     string `json:"op"`
	Room   string `json:"room,omitempty"`
	Reason string `json:"reason"`
}

type StreamClosedMessage struct {
	Type string `json:"type"`
}

func NewCreateRoom(name string, capacity int) CreateRoomMessage {
	return CreateRoomMessage{Type: TypeCreateRoom, Name: name, Capacity: capacity}
}

func NewJoinRoom(name string) JoinRoomMessage {
	return JoinRoomMessage{Type: TypeJoinRoom, Name: name}
}

func NewLeaveRoom() LeaveRoomMessage {
	return LeaveRoomMessage{Type: TypeLeaveRoom}
}

func NewRequestRoomList() RequestRoomListMessage {
	return RequestRoomListMessage{Type: TypeRequestRoomList}
}

func NewStreamClosed() StreamClosedMessage {
	return StreamClosedMessage{Type: TypeStreamClosed}
}

func NewWelcome(h room.Handle, resumeKey string) WelcomeMessage {
	return WelcomeMessage{Type: TypeWelcome, Handle: h, ResumeKey: resumeKey}
}

func NewResumeKey(resumeKey string) ResumeKeyMessage {
	return ResumeKeyMessage{Type: TypeResumeKey, ResumeKey: resumeKey}
}

func NewRoomSnapshot(table []byte) RoomSnapshotMessage {
	return RoomSnapshotMessage{Type: TypeRoomSnapshot, Table: table}
}

// NewNotification turns a membership event into its broadcast message.
func NewNotification(ev room.Event) any {
	if ev.Kind == room.Left {
		return LeftMessage{Type: TypeLeft, Handle: ev.Handle, Room: ev.Room}
	}
	return JoinedMessage{Type: TypeJoined, Handle: ev.Handle, Room: ev.Room}
}

func NewRejected(op string, roomName string, err error) RejectedMessage {
	return RejectedMessage{Type: TypeRejected, Op: op, Room: roomName, Reason: Reason(err)}
}

func Encode(message any) ([]byte, error) {
	return json.Marshal(message)
}

func unmarshal[T any](data []byte) (T, error) {
	var parsed T
	err := json.Unmarshal(data, &parsed)
	return parsed, err
}

func messageType(data []byte) (string, error) {
	header, err := unmarshal[struct {
		Type string `json:"type"`
	}](data)
	if err != nil {
		return "", ErrMalformed
	}
	return header.Type, nil
}

// ParseRequest returns one of the client to server message structs.
// Requests that could never succeed are rejected here with ErrMalformed.
func ParseRequest(data []byte) (any, error) {
	typ, err := messageType(data)
	if err != nil {
		return nil, err
	}
	switch typ {
	case TypeCreateRoom:
		m, err := unmarshal[CreateRoomMessage](data)
		if err != nil || m.Name == "" || m.Capacity < 1 {
			return nil, ErrMalformed
		}
		return m, nil
	case TypeJoinRoom:
		m, err := unmarshal[JoinRoomMessage](data)
		if err != nil || m.Name == "" {
			return nil, ErrMalformed
		}
		return m, nil
	case TypeLeaveRoom:
		return NewLeaveRoom(), nil
	case TypeRequestRoomList:
		return NewRequestRoomList(), nil
	default:
		return nil, ErrUndefinedType
	}
}

// ParseServerMessage returns one of the server to client message structs.
func ParseServerMessage(data []byte) (any, error) {
	typ, err := messageType(data)
	if err != nil {
		return nil, err
	}
	var parsed any
	switch typ {
	case TypeWelcome:
		parsed, err = unmarshal[WelcomeMessage](data)
	case TypeResumeKey:
		parsed, err = unmarshal[ResumeKeyMessage](data)
	case TypeRoomSnapshot:
		parsed, err = unmarshal[RoomSnapshotMessage](data)
	case TypeJoined:
		parsed, err = unmarshal[JoinedMessage](data)
	case TypeLeft:
		parsed, err = unmarshal[LeftMessage](data)
	case TypeRejected:
		parsed, err = unmarshal[RejectedMessage](data)
	case TypeStreamClosed:
		parsed, err = unmarshal[StreamClosedMessage](data)
	default:
		return nil, ErrUndefinedType
	}
	if err != nil {
		return nil, ErrMalformed
	}
	return parsed, nil
}
