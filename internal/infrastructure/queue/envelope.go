package queue

import (
	"encoding/json"
	"time"
)

// DeadLetter is what a rejected job looks like on the dead-letter queue
type DeadLetter struct {
	Queue                string          `json:"queue"`
	Body                 json.RawMessage `json:"body"`
	Reason               string          `json:"reason"`
	DeadLetterExchange   string          `json:"deadLetterExchange,omitempty"`
	DeadLetterRoutingKey string          `json:"deadLetterRoutingKey,omitempty"`
	FailedAt             time.Time       `json:"failedAt"`
}

func newDeadLetter(queue string, body []byte, reason string, now time.Time) DeadLetter {
	raw := json.RawMessage(body)
	if !json.Valid(body) {
		quoted, _ := json.Marshal(string(body))
		raw = quoted
	}
	return DeadLetter{
		Queue:    queue,
		Body:     raw,
		Reason:   reason,
		FailedAt: now.UTC(),
	}
}
