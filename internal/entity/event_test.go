package entity

import (
	"Codepad/pkg/log"
	"Codepad/pkg/validations"
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	validations.RegisterCustomValidations(context.Background(), log.NewWithWriter("test", io.Discard))
	os.Exit(m.Run())
}

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    Inbound
		wantErr error
	}{
		{
			name:  "enter room",
			frame: `{"event":"enterRoom","data":{"name":"ada","room":"project-1","userId":"u1","email":"ada@example.com"}}`,
			want:  EnterRoom{Name: "ada", Room: "project-1", UserID: "u1", Email: "ada@example.com"},
		},
		{
			name:  "enter room anonymous",
			frame: `{"event":"enterRoom","data":{"name":"ada","room":"project-1"}}`,
			want:  EnterRoom{Name: "ada", Room: "project-1"},
		},
		{
			name:    "enter room without room",
			frame:   `{"event":"enterRoom","data":{"name":"ada"}}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "enter room blank room",
			frame:   `{"event":"enterRoom","data":{"name":"ada","room":"   "}}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "enter room bad email",
			frame:   `{"event":"enterRoom","data":{"room":"r","email":"nope"}}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:  "message with color",
			frame: `{"event":"message","data":{"id":"abc","text":"hi","color":"#ff0000"}}`,
			want:  ChatMessage{ID: "abc", Text: "hi", Color: "#ff0000"},
		},
		{
			name:  "message without color",
			frame: `{"event":"message","data":{"id":"abc","text":"hi"}}`,
			want:  ChatMessage{ID: "abc", Text: "hi"},
		},
		{
			name:    "message bad color",
			frame:   `{"event":"message","data":{"id":"abc","text":"hi","color":"red"}}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "message without text",
			frame:   `{"event":"message","data":{"id":"abc"}}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:  "activity",
			frame: `{"event":"activity","data":"ada"}`,
			want:  Activity{Username: "ada"},
		},
		{
			name:    "activity not a string",
			frame:   `{"event":"activity","data":{"username":"ada"}}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "activity null",
			frame:   `{"event":"activity","data":null}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "activity empty username",
			frame:   `{"event":"activity","data":""}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "unknown event",
			frame:   `{"event":"ban","data":{}}`,
			wantErr: ErrUnknownEvent,
		},
		{
			name:    "disconnect is transport only",
			frame:   `{"event":"disconnect","data":"transport close"}`,
			wantErr: ErrUnknownEvent,
		},
		{
			name:    "missing data",
			frame:   `{"event":"message"}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "not json",
			frame:   `hello`,
			wantErr: ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.frame))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Kind(), got.Kind())
		})
	}
}

func TestEncode(t *testing.T) {
	frame, err := Encode(EventUserList, UserList{Users: []RoomUser{{ID: "c1", Name: "ada"}}})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventUserList, env.Event)
	assert.JSONEq(t, `{"users":[{"id":"c1","name":"ada"}]}`, string(env.Data))
}

func TestDisconnectReasonFinal(t *testing.T) {
	assert.True(t, ReasonClientClose.Final())
	assert.True(t, ReasonServerClose.Final())
	assert.True(t, ReasonTransportClose.Final())
	assert.True(t, ReasonPingTimeout.Final())
	assert.False(t, ReasonTransportError.Final())
	assert.False(t, ReasonClientReconnecting.Final())
}

func TestDisplayNameOf(t *testing.T) {
	assert.Equal(t, "ada@example.com", DisplayNameOf("ada", "ada@example.com"))
	assert.Equal(t, "ada", DisplayNameOf("ada", ""))
}
