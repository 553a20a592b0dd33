package rag

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ragserver/internal/ai"
	"ragserver/internal/model"
)

// InsufficientAnswer is the sentinel the generator emits when the retrieved
// context cannot ground a response. It is a quality signal, not an error.
const InsufficientAnswer = "I don't have enough information to answer this question. Please provide relevant documents first."

const systemPrompt = `You are a helpful assistant that answers questions based on the provided context.

IMPORTANT RULES:
1. Only use information from the provided context to answer the question.
2. Include inline citations using [1], [2], etc. to reference the source of each piece of information.
3. If the context doesn't contain enough information to answer the question, say "I cannot find enough information in the provided documents to answer this question."
4. Be concise but comprehensive.
5. Always cite your sources using the citation numbers provided.`

var noAnswerPhrases = []string{
	"cannot find enough information",
	"don't have enough information",
	"no information available",
	"not mentioned in the provided",
}

var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

type chatAPI interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (*ai.ChatResult, error)
}

type Generator struct {
	client        chatAPI
	cfg           ai.ChatConfig
	contextBudget int // token budget for history + current-turn context
}

func NewGenerator(client chatAPI, cfg ai.ChatConfig, contextBudget int) *Generator {
	if contextBudget <= 0 {
		contextBudget = 6000
	}
	return &Generator{client: client, cfg: cfg, contextBudget: contextBudget}
}

// Generate produces a grounded answer whose text references the bound
// citation numbers. With no ranked chunks it emits the insufficient-info
// sentinel without calling the model. History is trimmed oldest-first when
// it would exceed the context budget; the current turn's context never is.
func (g *Generator) Generate(
	ctx context.Context,
	query string,
	history []model.Message,
	ranked []ScoredChunk,
	citations []model.Citation,
	byNumber map[int]model.Chunk,
) (*GenerationResult, error) {
	if len(ranked) == 0 {
		return &GenerationResult{
			Answer:    InsufficientAnswer,
			Citations: []model.Citation{},
			HasAnswer: false,
		}, nil
	}

	var contextParts []string
	for i, sc := range ranked {
		contextParts = append(contextParts, fmt.Sprintf("[%d] Source: %s\n%s", i+1, sc.Chunk.Source, sc.Chunk.Content))
	}
	contextBlock := strings.Join(contextParts, "\n\n")

	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nPlease provide a well-structured answer with inline citations [1], [2], etc.", contextBlock, query)

	kept := trimHistory(history, g.contextBudget-EstimateTokens(systemPrompt)-EstimateTokens(userPrompt))

	messages := make([]ai.ChatMessage, 0, len(kept)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: systemPrompt})
	for _, m := range kept {
		role := m.Role
		if role == "" {
			role = model.RoleUser
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: userPrompt})

	result, err := g.client.Complete(ctx, g.cfg, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationService, err)
	}

	answer := SanitizeMarkers(strings.TrimSpace(result.Content), byNumber)

	used := make([]model.Citation, 0, len(citations))
	for _, c := range citations {
		if strings.Contains(answer, "["+strconv.Itoa(c.Number)+"]") {
			used = append(used, c)
		}
	}

	return &GenerationResult{
		Answer:    answer,
		Citations: used,
		HasAnswer: hasAnswer(answer),
		Usage: model.TokenUsage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
	}, nil
}

// SanitizeMarkers removes bracketed citation markers that reference numbers
// outside the bound set. A model emitting [7] with five citations is a
// contract violation rendered as plain text absence, not a failure.
func SanitizeMarkers(answer string, byNumber map[int]model.Chunk) string {
	return markerPattern.ReplaceAllStringFunc(answer, func(marker string) string {
		n, err := strconv.Atoi(strings.Trim(marker, "[]"))
		if err != nil {
			return marker
		}
		if _, ok := byNumber[n]; !ok {
			return ""
		}
		return marker
	})
}

func hasAnswer(answer string) bool {
	lower := strings.ToLower(answer)
	if answer == InsufficientAnswer {
		return false
	}
	for _, phrase := range noAnswerPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

// trimHistory drops whole messages oldest-first until the estimated token
// count fits the remaining budget. Current-turn context is budgeted by the
// caller and never evicted.
func trimHistory(history []model.Message, budget int) []model.Message {
	if budget <= 0 {
		return nil
	}
	kept := history
	for len(kept) > 0 {
		total := 0
		for _, m := range kept {
			total += EstimateTokens(m.Content)
		}
		if total <= budget {
			break
		}
		kept = kept[1:]
	}
	return kept
}
