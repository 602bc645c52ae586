package queue

import (
	"encoding/json"
	"fmt"
)

// MessageVersion is the current dispatch message schema.
const MessageVersion = 1

// Message asks a dispatch consumer to hand one analysis request to the
// speed worker.
type Message struct {
	AnalysisID string `json:"analysisId"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message. Messages newer than
// MessageVersion are rejected so an old consumer never half-handles them.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version > MessageVersion {
		return Message{}, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	return msg, nil
}
