// Package bus delivers stage outcome signals between pipeline stages over
// Redis pub/sub. Delivery is at-least-once from the consumer's point of view;
// handlers guard against duplicates through job status checks.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
)

// Topics are the fixed set of signals the pipeline exchanges. Each stage
// emits exactly one of its two possible topics per invocation.
const (
	TopicSubmitted       = "submitted"
	TopicChannelResolved = "channel.resolved"
	TopicChannelError    = "channel.error"
	TopicVideosFetched   = "videos.fetched"
	TopicVideosError     = "videos.error"
)

// Handler processes one delivered message. The payload has already passed
// the envelope check (job_id and email present); the handler decodes the
// topic's full payload type itself. Handlers signal business failures as
// error-topic events, never as panics or returned errors.
type Handler func(ctx context.Context, payload []byte)

// Validator is implemented by every event payload type.
type Validator interface {
	Validate() error
}

// Bus publishes typed payloads and fans deliveries out to topic subscribers.
type Bus interface {
	Publish(ctx context.Context, topic string, payload Validator) error
	Subscribe(topic string, h Handler)
}

// envelope is the part of every payload the bus itself inspects before
// dispatch. A message that fails this check is a protocol fault: logged and
// dropped, since without an addressable job there is nothing to fail.
type envelope struct {
	JobID string `json:"job_id"`
	Email string `json:"email"`
}

func checkEnvelope(payload []byte) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	if env.JobID == "" || env.JobID == "00000000-0000-0000-0000-000000000000" {
		return fmt.Errorf("payload missing job_id")
	}
	if env.Email == "" {
		return fmt.Errorf("payload missing email")
	}
	return nil
}
