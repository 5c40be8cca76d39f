package domain

const MaxChatMessages = 50

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

type ChatInput struct {
	Messages []ChatMessage `json:"messages"`
}
