package completion

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// DefaultSystemPrompt is appended to every conversation unless configured otherwise.
const DefaultSystemPrompt = `You are an assistant that helps developers with their Azure resources.` +
	`{{ with .Identity }} You are talking to {{ . }}.{{ end }}` +
	` Today is {{ .Now | date "Monday, 2 January 2006" }}.`

// PromptData is the data a system prompt template is rendered with.
type PromptData struct {
	// Identity is the canonical identity of the chat user.
	Identity string
	// Model is the model the conversation is sent to.
	Model string
	// Now is the time the request was received.
	Now time.Time
}

// PromptTemplate renders the system prompt. Templates use text/template
// syntax with the sprig function library.
type PromptTemplate struct {
	tmpl *template.Template
}

// NewPromptTemplate parses text. An empty text selects DefaultSystemPrompt.
func NewPromptTemplate(text string) (*PromptTemplate, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultSystemPrompt
	}

	tmpl, err := template.New("system-prompt").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse system prompt template: %w", err)
	}
	return &PromptTemplate{tmpl: tmpl}, nil
}

// Render executes the template.
func (p *PromptTemplate) Render(data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Message renders the template into a system message.
func (p *PromptTemplate) Message(data PromptData) (Message, error) {
	content, err := p.Render(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Role: RoleSystem, Content: content}, nil
}
