// Wire events exchanged over a Codepad websocket.
// Every frame is a JSON envelope {"event": <kind>, "data": <payload>}.

package entity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/asaskevich/govalidator"
)

// EventKind names an envelope's payload type.
type EventKind string

const (
	EventEnterRoom  EventKind = "enterRoom"
	EventMessage    EventKind = "message"
	EventActivity   EventKind = "activity"
	EventUserList   EventKind = "userList"
	EventDisconnect EventKind = "disconnect"
)

var (
	ErrUnknownEvent     = errors.New("unknown event")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Envelope is the frame format of every websocket message.
type Envelope struct {
	Event EventKind       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Inbound is implemented by every event the hub accepts from a connection.
type Inbound interface {
	Kind() EventKind
}

// EnterRoom joins (or moves) the connection into Room.
type EnterRoom struct {
	Name   string `json:"name" valid:"optional,stringlength(1|64)"`
	Room   string `json:"room" valid:"required,printableascii,stringlength(1|64),nospaceonly~room:Room cannot contain only spaces"`
	UserID string `json:"userId" valid:"optional,printableascii,stringlength(1|128),nospace~userId:No spaces allowed here"`
	Email  string `json:"email" valid:"optional,email"`
}

// ChatMessage is relayed to the sender's room. ID is the client's idempotency key.
type ChatMessage struct {
	ID    string `json:"id" valid:"required,stringlength(1|128)"`
	Text  string `json:"text" valid:"required,stringlength(1|2000)"`
	Color string `json:"color,omitempty" valid:"optional,hexcolor_custom"`
}

// Activity is the ephemeral "user is typing" signal, a bare JSON string on the wire.
type Activity struct {
	Username string
}

// Disconnect is produced by the transport, never decoded from a client frame.
type Disconnect struct {
	Reason DisconnectReason
}

func (EnterRoom) Kind() EventKind   { return EventEnterRoom }
func (ChatMessage) Kind() EventKind { return EventMessage }
func (Activity) Kind() EventKind    { return EventActivity }
func (Disconnect) Kind() EventKind  { return EventDisconnect }

// OutboundMessage is the message event fanned out to a room.
type OutboundMessage struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	UserID    string `json:"userId"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Color     string `json:"color"`
	Room      string `json:"room"`
}

// UserList is the member list of a room.
type UserList struct {
	Users []RoomUser `json:"users"`
}

// DecodeInbound parses a client frame into one of EnterRoom, ChatMessage or Activity.
func DecodeInbound(frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: %s without data", ErrMalformedPayload, env.Event)
	}

	switch env.Event {
	case EventEnterRoom:
		var ev EnterRoom
		if err := decodeAndValidate(env.Data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventMessage:
		var ev ChatMessage
		if err := decodeAndValidate(env.Data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventActivity:
		var ev Activity
		if err := json.Unmarshal(env.Data, &ev.Username); err != nil {
			return nil, fmt.Errorf("%w: activity: %v", ErrMalformedPayload, err)
		}
		if ev.Username == "" || len(ev.Username) > 64 {
			return nil, fmt.Errorf("%w: activity: username must be 1 to 64 bytes", ErrMalformedPayload)
		}
		return ev, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
}

func decodeAndValidate(data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if _, err := govalidator.ValidateStruct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// Encode wraps payload into an envelope frame.
func Encode(kind EventKind, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: kind, Data: data})
}
