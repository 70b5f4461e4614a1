package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"entrabridge/internal/completion"
	"entrabridge/internal/sse"
	"entrabridge/pkg/logging"
	pkgstrings "entrabridge/pkg/strings"
)

// GitHubTokenHeader carries the chat user's GitHub token.
const GitHubTokenHeader = "X-GitHub-Token"

const (
	msgUnidentified      = "Unable to identify user from GitHub token"
	msgCompletionFailed  = "Chat completion failed"
	msgStreamInterrupted = "The completion stream was interrupted. Please try again."

	streamInterruptedCode = "stream_interrupted"
)

// handleChat relays a conversation to the completion endpoint once the user
// holds a credential, and asks them to sign in otherwise.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	githubToken := r.Header.Get(GitHubTokenHeader)

	userID, err := s.resolver.Resolve(ctx, githubToken)
	if err != nil {
		logging.WarnContext(ctx, "Relay", "Unable to identify user from GitHub token: %v", err)
		http.Error(w, msgUnidentified, http.StatusUnauthorized)
		return
	}
	masked := pkgstrings.MaskIdentity(userID)

	if _, ok := s.credentials.Get(userID); !ok {
		logging.InfoContext(ctx, "Relay", "No Entra credential for %s, sending auth message", masked)
		sse.PrepareHeaders(w)
		w.WriteHeader(http.StatusOK)
		out := sse.NewFlushWriter(w)
		_, _ = out.Write(sse.TextEvent(fmt.Sprintf("Please authenticate to use this extension here: %s", s.AuthURL())))
		_, _ = out.Write(sse.DoneEvent())
		return
	}

	var payload completion.Payload
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		logging.DebugContext(ctx, "Relay", "Invalid chat payload: %v", err)
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	system, err := s.prompt.Message(completion.PromptData{
		Identity: userID,
		Model:    s.completion.Model(),
		Now:      s.clock.Now(),
	})
	if err != nil {
		logging.ErrorContext(ctx, "Relay", err, "Failed to render system prompt")
		writeJSONError(w, http.StatusInternalServerError, msgCompletionFailed)
		return
	}
	messages := append(payload.Messages, system)

	logging.DebugContext(ctx, "Relay", "Relaying %d messages for %s", len(messages), masked)

	stream, err := s.completion.Stream(ctx, messages, githubToken)
	if err != nil {
		logging.ErrorContext(ctx, "Relay", err, "Chat completion failed for %s", masked)
		resp := map[string]string{"error": msgCompletionFailed}
		if errors.Is(err, completion.ErrUnauthorized) {
			resp["authUrl"] = s.AuthURL()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	defer stream.Close()

	sse.PrepareHeaders(w)
	w.WriteHeader(http.StatusOK)

	out := sse.NewFlushWriter(w)
	n, err := io.Copy(out, stream)
	if err != nil {
		logging.WarnContext(ctx, "Relay", "Completion stream for %s ended early after %d bytes: %v", masked, n, err)
		if ctx.Err() != nil {
			return
		}
		// The status line is already sent; report the failure in-band.
		_, _ = out.Write(sse.ErrorsEvent(sse.CopilotError{
			Type:       sse.ErrorTypeAgent,
			Code:       streamInterruptedCode,
			Message:    msgStreamInterrupted,
			Identifier: "completion",
		}))
		return
	}
	_, _ = out.Write(sse.DoneEvent())

	logging.DebugContext(ctx, "Relay", "Completion stream for %s finished (%d bytes)", masked, n)
}
