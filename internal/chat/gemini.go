package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
)

// NewGeminiClient creates a Gemini client on Vertex AI.
func NewGeminiClient(ctx context.Context, projectID, location string) (gollem.LLMClient, error) {
	client, err := gemini.New(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// SessionBackend holds a single long-lived LLM session so follow-up questions
// see earlier turns. Calls are serialized on that session.
type SessionBackend struct {
	client gollem.LLMClient

	mu      sync.Mutex
	session gollem.Session
}

func NewSessionBackend(client gollem.LLMClient) *SessionBackend {
	return &SessionBackend{client: client}
}

func (b *SessionBackend) Send(ctx context.Context, prompt string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		s, err := b.client.NewSession(ctx, gollem.WithSessionSystemPrompt(SystemPrompt))
		if err != nil {
			return "", fmt.Errorf("create session: %w", err)
		}
		b.session = s
	}

	resp, err := b.session.Generate(ctx, []gollem.Input{gollem.Text(prompt)})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return strings.Join(resp.Texts, ""), nil
}

// Reset drops the conversation so the next Send starts a fresh session.
func (b *SessionBackend) Reset() {
	b.mu.Lock()
	b.session = nil
	b.mu.Unlock()
}
