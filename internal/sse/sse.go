// Package sse writes the server-sent events understood by GitHub Copilot
// chat extensions.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ContentType is the media type of an event stream.
const ContentType = "text/event-stream"

type delta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content"`
}

type choice struct {
	Index        int     `json:"index"`
	FinishReason *string `json:"finish_reason,omitempty"`
	Delta        delta   `json:"delta"`
}

type chunk struct {
	Choices []choice `json:"choices"`
}

// CopilotError is one entry of a copilot_errors event.
type CopilotError struct {
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Identifier string `json:"identifier"`
}

// ErrorTypeAgent marks an error raised by the extension itself.
const ErrorTypeAgent = "agent"

// TextEvent returns an event carrying one assistant message delta.
func TextEvent(text string) []byte {
	return encode(chunk{Choices: []choice{{
		Delta: delta{Role: "assistant", Content: &text},
	}}})
}

// DoneEvent returns the final stop chunk followed by the [DONE] marker.
func DoneEvent() []byte {
	stop := "stop"
	b := encode(chunk{Choices: []choice{{
		FinishReason: &stop,
		Delta:        delta{Content: nil},
	}}})
	return append(b, "data: [DONE]\n\n"...)
}

// ErrorsEvent returns a copilot_errors event.
func ErrorsEvent(errs ...CopilotError) []byte {
	if errs == nil {
		errs = []CopilotError{}
	}
	payload, err := json.Marshal(errs)
	if err != nil {
		// Plain string fields cannot fail to marshal.
		panic(err)
	}
	return []byte(fmt.Sprintf("event: copilot_errors\ndata: %s\n\n", payload))
}

func encode(c chunk) []byte {
	payload, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	return []byte(fmt.Sprintf("data: %s\n\n", payload))
}

// FlushWriter flushes the underlying ResponseWriter after each write so
// events reach the client as soon as they are produced.
type FlushWriter struct {
	w io.Writer
	f http.Flusher
}

// NewFlushWriter wraps w. Writes are not flushed when w is not an http.Flusher.
func NewFlushWriter(w http.ResponseWriter) *FlushWriter {
	f, _ := w.(http.Flusher)
	return &FlushWriter{w: w, f: f}
}

// Write implements io.Writer.
func (fw *FlushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err == nil && fw.f != nil {
		fw.f.Flush()
	}
	return n, err
}

// PrepareHeaders sets the response headers of an event stream.
func PrepareHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}
