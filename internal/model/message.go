package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string     `gorm:"size:36;not null;index" json:"conversation_id"`
	Role           string     `gorm:"size:16;not null" json:"role"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Citations      []Citation `gorm:"serializer:json;type:text" json:"citations"`
	TimingMS       *float64   `json:"timing_ms"`
	TokenUsage     TokenUsage `gorm:"serializer:json;type:text" json:"token_usage"`
	SourcesUsed    int        `json:"sources_used"`
	CreatedAt      time.Time  `json:"created_at"`
}
