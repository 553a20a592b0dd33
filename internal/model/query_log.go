package model

import "time"

// QueryLog records a completed query for analytics. Written asynchronously
// off the request path.
type QueryLog struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Query       string     `gorm:"type:text;not null" json:"query"`
	Answer      string     `gorm:"type:text" json:"answer"`
	HasAnswer   bool       `json:"has_answer"`
	TimingMS    float64    `json:"timing_ms"`
	TokenUsage  TokenUsage `gorm:"serializer:json;type:text" json:"token_usage"`
	SourcesUsed int        `json:"sources_used"`
	CreatedAt   time.Time  `json:"created_at"`
}
