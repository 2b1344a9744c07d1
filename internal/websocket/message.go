package websocket

import (
	"encoding/json"
	"time"

	"notes-api/internal/domain"
)

type MessageType string

const (
	TypePing        MessageType = "ping"
	TypePong        MessageType = "pong"
	TypeError       MessageType = "error"
	TypeNoteCreated MessageType = MessageType(domain.NoteEventCreated)
	TypeNoteUpdated MessageType = MessageType(domain.NoteEventUpdated)
	TypeNoteDeleted MessageType = MessageType(domain.NoteEventDeleted)
	TypeNoteShared  MessageType = MessageType(domain.NoteEventShared)
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NotePayload carries the note as it was after the change. Deletions only
// carry the id.
type NotePayload struct {
	NoteID string               `json:"noteId"`
	Note   *domain.NoteResponse `json:"note,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
