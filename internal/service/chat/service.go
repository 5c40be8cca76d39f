// Package chat relays conversations to an OpenAI-compatible streaming
// completion endpoint.
package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"citizen-registry/internal/config"
	"citizen-registry/internal/domain"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
	maxLineSize  = 1 << 20
)

type Service interface {
	// Stream sends messages upstream and calls onDelta for every content
	// fragment until the stream ends. An onDelta error aborts the stream.
	Stream(ctx context.Context, messages []domain.ChatMessage, onDelta func(string) error) error
}

type Options struct {
	URL          string
	APIKey       string
	Model        string
	SystemPrompt string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		URL:          cfg.ChatCompletionURL,
		APIKey:       cfg.ChatAPIKey,
		Model:        cfg.ChatModel,
		SystemPrompt: cfg.ChatSystemPrompt,
	}
}

type service struct {
	client *http.Client
	opts   Options
	logger *zap.Logger
}

func NewService(client *http.Client, opts Options, logger *zap.Logger) Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &service{client: client, opts: opts, logger: logger}
}

type upstreamMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type upstreamRequest struct {
	Model    string            `json:"model"`
	Messages []upstreamMessage `json:"messages"`
	Stream   bool              `json:"stream"`
}

func (s *service) Stream(ctx context.Context, messages []domain.ChatMessage, onDelta func(string) error) error {
	if err := ValidateMessages(messages); err != nil {
		return err
	}
	if s.opts.URL == "" {
		return domain.NewRemoteUnavailable("chat completion", fmt.Errorf("assistant is not configured"))
	}

	body, err := json.Marshal(s.buildRequest(messages))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if s.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.opts.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.NewRemoteUnavailable("chat completion", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return domain.ErrQuotaExceeded
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Warn("chat completion failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(snippet)),
		)
		return domain.NewRemoteUnavailable("chat completion", fmt.Errorf("upstream returned %d", resp.StatusCode))
	}

	return s.readEvents(resp.Body, onDelta)
}

func (s *service) readEvents(r io.Reader, onDelta func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
		if payload == doneSentinel {
			return nil
		}
		if !gjson.Valid(payload) {
			s.logger.Debug("skipping malformed chat event", zap.String("payload", payload))
			continue
		}

		content := gjson.Get(payload, "choices.0.delta.content").String()
		if content == "" {
			continue
		}
		if err := onDelta(content); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return domain.NewRemoteUnavailable("chat completion stream", err)
	}
	return domain.NewRemoteUnavailable("chat completion stream", errors.New("stream ended before [DONE]"))
}

func (s *service) buildRequest(messages []domain.ChatMessage) upstreamRequest {
	out := make([]upstreamMessage, 0, len(messages)+1)
	if s.opts.SystemPrompt != "" {
		out = append(out, upstreamMessage{Role: "system", Content: s.opts.SystemPrompt})
	}
	for _, m := range messages {
		out = append(out, upstreamMessage{Role: string(m.Role), Content: m.Content})
	}
	return upstreamRequest{Model: s.opts.Model, Messages: out, Stream: true}
}

func ValidateMessages(messages []domain.ChatMessage) error {
	if len(messages) == 0 {
		return domain.NewFieldError("messages", "at least one message is required")
	}
	if len(messages) > domain.MaxChatMessages {
		return domain.NewFieldError("messages", fmt.Sprintf("at most %d messages are allowed", domain.MaxChatMessages))
	}
	for i, m := range messages {
		if m.Role != domain.ChatRoleUser && m.Role != domain.ChatRoleAssistant {
			return domain.NewFieldError(fmt.Sprintf("messages[%d].role", i), "must be user or assistant")
		}
		if strings.TrimSpace(m.Content) == "" {
			return domain.NewFieldError(fmt.Sprintf("messages[%d].content", i), "is required")
		}
	}
	return nil
}
