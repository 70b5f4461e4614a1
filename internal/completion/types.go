package completion

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// RoleSystem is the role of the message the relay appends.
const RoleSystem = "system"

// Message is one chat message. Fields the relay does not interpret, such as
// copilot_references or copilot_confirmations, are kept in Extra and sent on
// to the completion endpoint unchanged.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	type known Message
	var k known
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw, "role")
	delete(raw, "content")
	delete(raw, "name")
	if len(raw) > 0 {
		k.Extra = raw
	}

	*m = Message(k)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m Message) MarshalJSON() ([]byte, error) {
	type known Message
	b, err := json.Marshal(known(m))
	if err != nil || len(m.Extra) == 0 {
		return b, err
	}

	out := make(map[string]json.RawMessage, len(m.Extra)+3)
	for k, v := range m.Extra {
		out[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// Payload is the body the chat client posts to the relay.
type Payload struct {
	Messages []Message `json:"messages"`
}

// Request is the body sent to the completion endpoint.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// ErrUnauthorized is matched by an UpstreamError with status 401.
var ErrUnauthorized = errors.New("completion endpoint rejected the credential")

// UpstreamError is returned when the completion endpoint answers with a
// non-2xx status.
type UpstreamError struct {
	StatusCode int
	// Message is a short, truncated excerpt of the response body.
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("completion endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("completion endpoint returned status %d: %s", e.StatusCode, e.Message)
}

// Is reports whether target is ErrUnauthorized and the status is 401.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
