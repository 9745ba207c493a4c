package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mythos-labs/mythos-api/internal/circuitbreaker"
	"github.com/mythos-labs/mythos-api/internal/loadbalancer"
	"go.uber.org/zap"
)

// ErrChatUnavailable is returned when the upstream circuit is open.
var ErrChatUnavailable = errors.New("chat upstream unavailable")

const chatSystemPrompt = "You are the Mythos guide. Answer questions about myths, " +
	"archetypes and the hero's journey using concise, sourced language."

// ChatService forwards chat turns to an OpenAI-style completions upstream.
// Upstream base URLs are picked round-robin and the whole call runs behind a
// circuit breaker so a dead upstream fails fast instead of eating the
// request timeout on every call.
type ChatService struct {
	upstreams []string
	model     string
	apiKey    string
	strategy  loadbalancer.Strategy
	breaker   *circuitbreaker.CircuitBreaker
	logger    *zap.Logger

	// HTTPClient is overridable for tests.
	HTTPClient *http.Client
}

func NewChatService(upstreams []string, model, apiKey string, strategy loadbalancer.Strategy, logger *zap.Logger) *ChatService {
	return &ChatService{
		upstreams: upstreams,
		model:     model,
		apiKey:    apiKey,
		strategy:  strategy,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		logger:     logger,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatReply struct {
	Content string    `json:"content"`
	Model   string    `json:"model"`
	Usage   ChatUsage `json:"usage"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage ChatUsage `json:"usage"`
}

// Complete sends one conversation to the upstream and returns the reply.
func (s *ChatService) Complete(ctx context.Context, messages []ChatMessage) (*ChatReply, error) {
	if len(s.upstreams) == 0 {
		return nil, errors.New("no chat upstreams configured")
	}

	target := s.strategy.Next(s.upstreams)

	var reply *ChatReply
	err := s.breaker.Call(func() error {
		r, callErr := s.complete(ctx, target, messages)
		if callErr != nil {
			return callErr
		}
		reply = r
		return nil
	})

	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil, ErrChatUnavailable
	}
	if err != nil {
		s.logger.Warn("chat upstream call failed",
			zap.String("upstream", target),
			zap.Error(err),
		)
		return nil, err
	}

	return reply, nil
}

func (s *ChatService) complete(ctx context.Context, baseURL string, messages []ChatMessage) (*ChatReply, error) {
	payload := completionRequest{
		Model:    s.model,
		Messages: append([]ChatMessage{{Role: "system", Content: chatSystemPrompt}}, messages...),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("chat upstream returned %d: %s", resp.StatusCode, snippet)
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}

	if len(out.Choices) == 0 {
		return nil, errors.New("chat upstream returned no choices")
	}

	return &ChatReply{
		Content: out.Choices[0].Message.Content,
		Model:   s.model,
		Usage:   out.Usage,
	}, nil
}

// BreakerMetrics exposes the upstream circuit state for the admin status
// endpoint.
func (s *ChatService) BreakerMetrics() circuitbreaker.Metrics {
	return s.breaker.Metrics()
}

// ResetBreaker closes the circuit manually.
func (s *ChatService) ResetBreaker() {
	s.breaker.Reset()
}
