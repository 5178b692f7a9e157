package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/surf/pkg/types"
)

func sseServer(t *testing.T, capture *[]byte, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			*capture = body
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
		}
	}))
}

func TestNewProviderRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewProvider("")
	assert.Error(t, err)
}

func TestNewProviderEnvFallbacks(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9999/v1")

	p, err := NewProvider("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/v1", p.GetBaseURL())
	assert.Equal(t, "http://localhost:9999/v1", p.GetModelInfo().Metadata["base_url"])
}

func TestCompleteAccumulatesStream(t *testing.T) {
	server := sseServer(t, nil,
		`data: {"choices":[{"delta":{"role":"assistant","content":""}}]}`,
		`data: {"choices":[{"delta":{"content":"[操作：click"}}]}`,
		`: keep-alive comment`,
		`data: {"choices":[{"delta":{"content":"，对象：8，内容：]"}}]}`,
		`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`data: [DONE]`,
	)
	defer server.Close()

	p, err := NewProvider("test-key", WithBaseURL(server.URL), WithModel("gpt-4o"))
	require.NoError(t, err)

	reply, err := p.Complete(context.Background(), []*types.Message{
		types.NewUserMessage("click the button"),
	})
	require.NoError(t, err)

	assert.Equal(t, types.RoleAssistant, reply.Role)
	assert.Equal(t, "[操作：click，对象：8，内容：]", reply.Content)
}

func TestCompleteReportsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	p, err := NewProvider("bad-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), []*types.Message{types.NewUserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestRequestPayloadCarriesImages(t *testing.T) {
	var captured []byte
	server := sseServer(t, &captured,
		`data: {"choices":[{"delta":{"role":"assistant","content":"ok"}}]}`,
		`data: [DONE]`,
	)
	defer server.Close()

	p, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), []*types.Message{
		types.NewSystemMessage("be brief"),
		types.NewUserMessageWithImage("what is on this page", "aGVsbG8="),
	})
	require.NoError(t, err)

	var payload struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(captured, &payload))
	require.Len(t, payload.Messages, 2)
	assert.True(t, payload.Stream)
	assert.Equal(t, "system", payload.Messages[0].Role)
	assert.Equal(t, "user", payload.Messages[1].Role)

	var parts []struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		ImageURL struct {
			URL string `json:"url"`
		} `json:"image_url"`
	}
	require.NoError(t, json.Unmarshal(payload.Messages[1].Content, &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, "what is on this page", parts[0].Text)
	assert.Equal(t, "image_url", parts[1].Type)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", parts[1].ImageURL.URL)
}

func TestCloneWithModelSharesTransport(t *testing.T) {
	p, err := NewProvider("test-key", WithBaseURL("http://localhost:1234/v1"), WithModel("gpt-4o"))
	require.NoError(t, err)

	clone := p.CloneWithModel("gpt-4o-mini")
	cloned, ok := clone.(*Provider)
	require.True(t, ok)

	assert.Equal(t, "gpt-4o-mini", cloned.GetModel())
	assert.Equal(t, "gpt-4o-mini", cloned.GetModelInfo().Name)
	assert.Equal(t, p.GetBaseURL(), cloned.GetBaseURL())

	assert.Equal(t, "gpt-4o", p.GetModel(), "the original must be untouched")
}
