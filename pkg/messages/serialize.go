package messages

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// SerializeMessage encodes a message as zstd-compressed JSON for the
// wire. Snapshot payloads carry the whole room document, so compression
// pays for itself quickly.
func SerializeMessage(m *Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %v", err)
	}

	compressed := bytes.NewBuffer(nil)
	compWriter, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := compWriter.Write(b); err != nil {
		return nil, fmt.Errorf("failed to compress message: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}

	return compressed.Bytes(), nil
}

// DeserializeMessage decodes a zstd-compressed JSON message.
func DeserializeMessage(data []byte) (*Message, error) {
	compReader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer compReader.Close()
	b, err := io.ReadAll(compReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read decompressed message: %v", err)
	}

	message := &Message{}
	if err := json.Unmarshal(b, message); err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return message, nil
}

// NewMessage wraps a payload struct in a typed envelope.
func NewMessage(messageType string, payload interface{}) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %v", err)
	}
	return &Message{
		Type:    messageType,
		Payload: b,
	}, nil
}
