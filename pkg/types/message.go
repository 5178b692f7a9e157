// Package types holds the conversation primitives shared between the agent
// loop and the LLM providers.
package types

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one turn of the conversation sent to the model. A user message
// may carry screenshots alongside its text so vision-capable models can see
// the page the text describes.
type Message struct {
	Role    MessageRole
	Content string

	// Images holds base64-encoded PNG screenshots, without a data-URL
	// prefix. Ignored for non-user roles.
	Images []string
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewUserMessageWithImage creates a user-role message with one screenshot
// attached.
func NewUserMessageWithImage(content, imageB64 string) *Message {
	return &Message{Role: RoleUser, Content: content, Images: []string{imageB64}}
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// ModelInfo describes the model behind a provider.
type ModelInfo struct {
	Provider          string
	Name              string
	MaxTokens         int
	SupportsStreaming bool
	Metadata          map[string]interface{}
}
