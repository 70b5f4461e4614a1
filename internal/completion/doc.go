// Package completion talks to the downstream chat-completion endpoint.
//
// Client.Stream posts the conversation with streaming enabled and returns the
// raw event stream, which the relay copies to the chat client unchanged.
// PromptTemplate renders the system prompt appended to every conversation.
package completion
