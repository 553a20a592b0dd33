package model

// Citation is an answer-scoped reference to a chunk. Numbers are 1-based and
// contiguous within a single answer; they are never reused across answers.
type Citation struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
	Source string `json:"source"`
	Title  string `json:"title"`
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
