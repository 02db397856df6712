package model

import "time"

// MessageRole identifies who produced an advisor message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleError     MessageRole = "error"
)

// AdvisorMessage is one entry of the advisor transcript
type AdvisorMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}
