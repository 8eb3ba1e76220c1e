// Package agent implements the Provider interface over the OpenAI API.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/hireloop-ai/hireloop/internal/models"
)

// interviewerPrompt frames the agent as a structured mock interviewer. One
// question per turn; the client drives pacing.
const interviewerPrompt = `You are a professional interviewer conducting a structured mock interview.
Ask exactly one interview question per message, grounded in the candidate's target role.
Keep questions concise and do not answer them yourself.`

// Opts holds configuration for the OpenAI-backed provider.
type Opts struct {
	APIKey string
	Model  string
}

// Option configures the OpenAI-backed provider.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// OpenAIProvider implements Provider over OpenAI chat completions, holding
// per-session message history keyed by opaque handle.
type OpenAIProvider struct {
	client openai.Client
	model  openai.ChatModel

	mu       sync.Mutex
	sessions map[string][]openai.ChatCompletionMessageParamUnion
}

// NewOpenAIProvider creates a provider from the given options.
func NewOpenAIProvider(opts ...Option) (*OpenAIProvider, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		slog.Error("Agent.NewOpenAIProvider: API key not set")
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	model := openai.ChatModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAIProvider{
		client:   openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:    model,
		sessions: make(map[string][]openai.ChatCompletionMessageParamUnion),
	}, nil
}

// CreateSession seeds a new conversation and returns its handle.
func (p *OpenAIProvider) CreateSession(ctx context.Context, agentID, version string) (string, error) {
	handle := uuid.NewString()
	system := interviewerPrompt
	if agentID != "" {
		system = fmt.Sprintf("%s\nAgent profile: %s (version %s).", interviewerPrompt, agentID, version)
	}
	p.mu.Lock()
	p.sessions[handle] = []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(system)}
	p.mu.Unlock()
	slog.Debug("Agent.CreateSession: session opened", "handle", handle, "agent_id", agentID, "version", version)
	return handle, nil
}

// StreamMessage sends text into the session and returns the streaming reply.
func (p *OpenAIProvider) StreamMessage(ctx context.Context, sessionID, text string) (Stream, error) {
	p.mu.Lock()
	history, ok := p.sessions[sessionID]
	if !ok {
		p.mu.Unlock()
		slog.Warn("Agent.StreamMessage: unknown session", "handle", sessionID)
		return nil, fmt.Errorf("unknown agent session %s: %w", sessionID, models.ErrNotFound)
	}
	history = append(history, openai.UserMessage(text))
	p.sessions[sessionID] = history
	p.mu.Unlock()

	raw := p.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: history,
	})
	return &openaiStream{provider: p, sessionID: sessionID, raw: raw}, nil
}

// openaiStream adapts the SSE chunk stream and records the full assistant
// reply back into the session history once the stream is drained.
type openaiStream struct {
	provider  *OpenAIProvider
	sessionID string
	raw       *ssestream.Stream[openai.ChatCompletionChunk]
	current   string
	reply     strings.Builder
	recorded  bool
}

func (s *openaiStream) Next() bool {
	for s.raw.Next() {
		chunk := s.raw.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		s.current = delta
		s.reply.WriteString(delta)
		return true
	}
	s.record()
	return false
}

func (s *openaiStream) Current() string { return s.current }

func (s *openaiStream) Err() error {
	if err := s.raw.Err(); err != nil {
		return &models.UpstreamError{Service: "chat provider", Err: err}
	}
	return nil
}

func (s *openaiStream) Close() error {
	s.record()
	return s.raw.Close()
}

// record appends the completed assistant reply to the session history so the
// next turn sees it. Errors leave the history without the partial reply.
func (s *openaiStream) record() {
	if s.recorded || s.raw.Err() != nil || s.reply.Len() == 0 {
		return
	}
	s.recorded = true
	s.provider.mu.Lock()
	if history, ok := s.provider.sessions[s.sessionID]; ok {
		s.provider.sessions[s.sessionID] = append(history, openai.AssistantMessage(s.reply.String()))
	}
	s.provider.mu.Unlock()
}
