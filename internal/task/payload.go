package task

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"
)

// IDLength is the length of generated task and worker identifiers.
const IDLength = 32

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Payload is the JSON envelope stored in a Cloud Tasks task body. It carries
// the complete state of one task invocation from enqueue to execution; there
// is no database row backing it, so losing the payload loses the task.
type Payload struct {
	// TaskID is an opaque idempotency/tracing key generated at enqueue time.
	TaskID string `json:"task_id"`

	// TaskPath is the registry key that resolves to the task function.
	TaskPath string `json:"task_path"`

	// Args are the positional arguments.
	Args []any `json:"args"`

	// Kwargs are the keyword arguments.
	Kwargs map[string]any `json:"kwargs"`

	// QueueName doubles as the Cloud Tasks queue ID.
	QueueName string `json:"queue_name"`

	// Backend is the alias of the originating backend, for multi-backend setups.
	Backend string `json:"backend"`

	// Priority is advisory only; Cloud Tasks has no native priority support.
	Priority int `json:"priority"`

	// TakesContext marks tasks that receive a TaskContext as their first argument.
	TakesContext bool `json:"takes_context"`

	// EnqueuedAt is the origin timestamp, absent when unknown.
	EnqueuedAt *time.Time `json:"enqueued_at,omitempty"`
}

// Encode serializes the payload for transport.
func (p Payload) Encode() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task payload: %w", err)
	}
	return data, nil
}

// DecodePayload parses a payload delivered by Cloud Tasks.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("failed to decode task payload: %w", err)
	}
	return p, nil
}

// RandomID returns a fixed-length random alphanumeric identifier suitable for
// task and worker IDs. It draws from crypto/rand; exhaustion of the system
// entropy source is unrecoverable and panics.
func RandomID() string {
	// Bytes at or above this limit are rejected so every alphabet rune is
	// equally likely (256 is not a multiple of the alphabet size).
	const limit = byte(256 - 256%len(idAlphabet))

	id := make([]byte, 0, IDLength)
	buf := make([]byte, IDLength)
	for len(id) < IDLength {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("task: reading random bytes: %v", err))
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			id = append(id, idAlphabet[int(b)%len(idAlphabet)])
			if len(id) == IDLength {
				break
			}
		}
	}
	return string(id)
}
