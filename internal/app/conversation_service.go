package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"ragserver/internal/model"
	"ragserver/internal/rag"
	"ragserver/internal/store"
)

const titlePrefixLimit = 50

// MessageCache is the optional Redis-backed message list cache.
type MessageCache interface {
	GetMessages(ctx context.Context, conversationID string) ([]model.Message, bool, error)
	SetMessages(ctx context.Context, conversationID string, messages []model.Message) error
	DeleteMessages(ctx context.Context, conversationID string) error
	MarkDirty(ctx context.Context, conversationID string) error
	IsDirty(ctx context.Context, conversationID string) (bool, error)
}

// TurnResult is the persisted user/assistant pair of one turn.
type TurnResult struct {
	UserMessage      model.Message `json:"user_message"`
	AssistantMessage model.Message `json:"assistant_message"`
}

type ConversationService struct {
	store         store.ConversationStore
	cache         MessageCache
	pipeline      *Pipeline
	logSink       QueryLogSink
	maxQueryChars int
}

// NewConversationService wires the turn state machine. cache and logSink
// may be nil when Redis or RabbitMQ are not configured.
func NewConversationService(
	convStore store.ConversationStore,
	cache MessageCache,
	pipeline *Pipeline,
	logSink QueryLogSink,
	maxQueryChars int,
) *ConversationService {
	if maxQueryChars <= 0 {
		maxQueryChars = 8192
	}
	return &ConversationService{
		store:         convStore,
		cache:         cache,
		pipeline:      pipeline,
		logSink:       logSink,
		maxQueryChars: maxQueryChars,
	}
}

func (s *ConversationService) Create(ctx context.Context, title string) (*model.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = model.DefaultConversationTitle
	}
	conversation, err := s.store.Create(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrPersistence, err)
	}
	return conversation, nil
}

func (s *ConversationService) List(ctx context.Context, limit int) ([]model.Conversation, error) {
	conversations, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrPersistence, err)
	}
	if conversations == nil {
		conversations = []model.Conversation{}
	}
	return conversations, nil
}

func (s *ConversationService) Get(ctx context.Context, id string) (*model.Conversation, error) {
	conversation, err := s.store.Get(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("%w: %v", rag.ErrPersistence, err)
	}

	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, id); dirtyErr == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetMessages(ctx, id); cacheErr == nil && hit {
				conversation.Messages = cached
				return conversation, nil
			}
			_ = s.cache.SetMessages(ctx, id, conversation.Messages)
		}
	}
	return conversation, nil
}

func (s *ConversationService) UpdateTitle(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title is empty", rag.ErrValidation)
	}
	if err := s.store.UpdateTitle(ctx, id, title); err != nil {
		if err == store.ErrNotFound {
			return ErrConversationNotFound
		}
		return fmt.Errorf("%w: %v", rag.ErrPersistence, err)
	}
	return nil
}

func (s *ConversationService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if err == store.ErrNotFound {
			return ErrConversationNotFound
		}
		return fmt.Errorf("%w: %v", rag.ErrPersistence, err)
	}
	if s.cache != nil {
		_ = s.cache.DeleteMessages(context.Background(), id)
	}
	return nil
}

// SendMessage runs one turn: validate, derive the first-turn title, run the
// pipeline with prior messages as history, then append the user/assistant
// pair atomically. A stage failure leaves the conversation untouched; a
// persistence failure after generation surfaces as TurnNotSavedError.
func (s *ConversationService) SendMessage(ctx context.Context, conversationID, query string) (*TurnResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", rag.ErrValidation)
	}
	if len(query) > s.maxQueryChars {
		return nil, fmt.Errorf("%w: query exceeds %d chars", rag.ErrValidation, s.maxQueryChars)
	}

	conversation, err := s.store.Get(ctx, conversationID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("%w: %v", rag.ErrPersistence, err)
	}

	// Derived before generation, committed only with the append.
	newTitle := ""
	if len(conversation.Messages) == 0 {
		newTitle = deriveTitle(query)
	}

	start := time.Now()
	result, err := s.pipeline.Run(ctx, query, conversation.Messages)
	if err != nil {
		return nil, err
	}
	timingMS := roundMS(time.Since(start))

	userMsg := model.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           model.RoleUser,
		Content:        query,
		Citations:      []model.Citation{},
		CreatedAt:      start,
	}
	assistantMsg := model.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           model.RoleAssistant,
		Content:        result.Answer,
		Citations:      result.Citations,
		TimingMS:       &timingMS,
		TokenUsage:     result.Usage,
		SourcesUsed:    result.SourcesUsed,
		CreatedAt:      time.Now(),
	}

	if s.cache != nil {
		_ = s.cache.MarkDirty(ctx, conversationID)
		_ = s.cache.DeleteMessages(ctx, conversationID)
	}

	turn := &TurnResult{UserMessage: userMsg, AssistantMessage: assistantMsg}
	if err := s.store.AppendTurn(ctx, conversationID, &userMsg, &assistantMsg, newTitle); err != nil {
		return nil, &TurnNotSavedError{Result: turn, Cause: err}
	}

	s.logTurn(query, result, timingMS)
	return turn, nil
}

func (s *ConversationService) logTurn(query string, result *PipelineResult, timingMS float64) {
	if s.logSink == nil {
		return
	}
	entry := model.QueryLog{
		Query:       query,
		Answer:      result.Answer,
		HasAnswer:   result.HasAnswer,
		TimingMS:    timingMS,
		TokenUsage:  result.Usage,
		SourcesUsed: result.SourcesUsed,
		CreatedAt:   time.Now(),
	}
	go func() {
		publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.logSink.Publish(publishCtx, entry); err != nil {
			log.Printf("publish query log failed: %v", err)
		}
	}()
}

// deriveTitle takes the first 50 runes of the query, appending a marker
// when the text was longer.
func deriveTitle(query string) string {
	runes := []rune(query)
	if len(runes) <= titlePrefixLimit {
		return query
	}
	return string(runes[:titlePrefixLimit]) + "..."
}
