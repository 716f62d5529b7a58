package test

import (
	"encoding/json"

	"Codepad/internal/entity"
)

func mustDecode(frame []byte) entity.Envelope {
	var env entity.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		panic(err)
	}
	return env
}

// UserList decodes a userList envelope.
func UserList(env entity.Envelope) entity.UserList {
	var list entity.UserList
	if err := json.Unmarshal(env.Data, &list); err != nil {
		panic(err)
	}
	return list
}

// Message decodes a message envelope.
func Message(env entity.Envelope) entity.OutboundMessage {
	var msg entity.OutboundMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		panic(err)
	}
	return msg
}

// Activity decodes an activity envelope.
func Activity(env entity.Envelope) string {
	var username string
	if err := json.Unmarshal(env.Data, &username); err != nil {
		panic(err)
	}
	return username
}
