// Package openai implements the provider interface against OpenAI-compatible
// chat completion APIs, including Azure deployments and local gateways that
// speak the same protocol.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"

	"github.com/entrhq/surf/pkg/llm"
	"github.com/entrhq/surf/pkg/types"
)

// DefaultBaseURL is the standard OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

const defaultModel = "gpt-4o"

// Provider talks to an OpenAI-compatible chat completions endpoint.
//
// Streaming uses raw HTTP and SSE parsing rather than the SDK client: the
// compatible gateways this runs against emit SSE comments and keep-alive
// lines the SDK's stricter decoder trips over. The SDK's message param
// types are still used to build request payloads.
type Provider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	modelInfo  *types.ModelInfo
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithModel selects the model used for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) { p.model = model }
}

// WithBaseURL points the provider at a non-default endpoint such as Azure
// OpenAI or a local gateway.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) { p.baseURL = strings.TrimRight(baseURL, "/") }
}

// NewProvider creates a provider. An empty apiKey falls back to the
// OPENAI_API_KEY environment variable; when no base URL option is given,
// OPENAI_BASE_URL is consulted before the default endpoint.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (argument or OPENAI_API_KEY)")
	}

	p := &Provider{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      defaultModel,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.baseURL == DefaultBaseURL {
		if env := os.Getenv("OPENAI_BASE_URL"); env != "" {
			p.baseURL = strings.TrimRight(env, "/")
		}
	}

	p.modelInfo = &types.ModelInfo{
		Provider:          "openai",
		Name:              p.model,
		MaxTokens:         128000,
		SupportsStreaming: true,
		Metadata:          map[string]interface{}{},
	}
	if p.baseURL != DefaultBaseURL {
		p.modelInfo.Metadata["base_url"] = p.baseURL
	}
	return p, nil
}

// CloneWithModel returns a copy of p directed at another model. The clone
// shares the HTTP client, key, and base URL.
func (p *Provider) CloneWithModel(model string) llm.Provider {
	clone := *p
	clone.model = model
	mi := *p.modelInfo
	mi.Name = model
	clone.modelInfo = &mi
	return &clone
}

// StreamCompletion sends the conversation and streams response chunks.
func (p *Provider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	resp, err := p.sendRequest(ctx, messages, true)
	if err != nil {
		return nil, err
	}

	chunks := make(chan *llm.StreamChunk, 10)
	go p.readStream(ctx, resp, chunks)
	return chunks, nil
}

// Complete sends the conversation and accumulates the streamed response
// into a single assistant message.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	stream, err := p.StreamCompletion(ctx, messages)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	role := string(types.RoleAssistant)
	for chunk := range stream {
		if chunk.IsError() {
			return nil, chunk.Error
		}
		if chunk.Role != "" {
			role = chunk.Role
		}
		content.WriteString(chunk.Content)
	}

	return &types.Message{Role: types.MessageRole(role), Content: content.String()}, nil
}

// GetModelInfo describes the backing model.
func (p *Provider) GetModelInfo() *types.ModelInfo { return p.modelInfo }

// GetModel returns the model name in use.
func (p *Provider) GetModel() string { return p.model }

// GetBaseURL returns the endpoint in use.
func (p *Provider) GetBaseURL() string { return p.baseURL }

func (p *Provider) sendRequest(ctx context.Context, messages []*types.Message, stream bool) (*http.Response, error) {
	body := map[string]interface{}{
		"model":    p.model,
		"messages": convertMessages(messages),
		"stream":   stream,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		errBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(errBody))
	}
	return resp, nil
}

func (p *Provider) readStream(ctx context.Context, resp *http.Response, chunks chan<- *llm.StreamChunk) {
	defer close(chunks)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	first := true

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			// Blank keep-alives and ":" comment lines.
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			p.send(ctx, chunks, &llm.StreamChunk{Finished: true})
			return
		}

		var event struct {
			Choices []struct {
				Delta struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"delta"`
				FinishReason *string `json:"finish_reason"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil || len(event.Choices) == 0 {
			// Gateways occasionally interleave non-delta frames.
			continue
		}

		choice := event.Choices[0]
		chunk := &llm.StreamChunk{Content: choice.Delta.Content}
		if first && choice.Delta.Role != "" {
			chunk.Role = choice.Delta.Role
			first = false
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			chunk.Finished = true
		}
		if chunk.Role == "" && chunk.Content == "" && !chunk.Finished {
			continue
		}
		if !p.send(ctx, chunks, chunk) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		chunks <- &llm.StreamChunk{Error: fmt.Errorf("stream read error: %w", err)}
	}
}

func (p *Provider) send(ctx context.Context, chunks chan<- *llm.StreamChunk, chunk *llm.StreamChunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		chunks <- &llm.StreamChunk{Error: ctx.Err()}
		return false
	}
}

// convertMessages maps conversation messages onto the SDK's chat param
// union. User messages with screenshots become multi-part content with
// data-URL image parts.
func convertMessages(messages []*types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case types.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			if len(msg.Images) == 0 {
				out = append(out, openai.UserMessage(msg.Content))
				continue
			}
			parts := []openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(msg.Content),
			}
			for _, img := range msg.Images {
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: "data:image/png;base64," + img,
				}))
			}
			out = append(out, openai.UserMessage(parts))
		}
	}
	return out
}
