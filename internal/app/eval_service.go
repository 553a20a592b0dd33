package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"ragserver/internal/ai"
	"ragserver/internal/rag"
)

const (
	evalAnswerLimit = 500
	evalDocLimit    = 8000
)

// EvalItem is one entry of the evaluation dataset.
type EvalItem struct {
	ID               int      `json:"id"`
	Question         string   `json:"question"`
	ExpectedAnswer   string   `json:"expected_answer"`
	RelevantKeywords []string `json:"relevant_keywords"`
	ContextDocument  string   `json:"context_document"`
}

// EvalResult is the per-question outcome of a dataset evaluation run.
type EvalResult struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	Precision     float64  `json:"precision"`
	Recall        float64  `json:"recall"`
	Success       bool     `json:"success"`
	FoundKeywords []string `json:"found_keywords"`
}

// EvalDocResult is the per-question outcome when evaluating generated QA
// pairs against an uploaded document.
type EvalDocResult struct {
	ID               int      `json:"id"`
	Question         string   `json:"question"`
	ExpectedAnswer   string   `json:"expected_answer"`
	ActualAnswer     string   `json:"actual_answer"`
	Precision        float64  `json:"precision"`
	Recall           float64  `json:"recall"`
	Success          bool     `json:"success"`
	FoundKeywords    []string `json:"found_keywords"`
	ExpectedKeywords []string `json:"expected_keywords"`
}

type EvalAggregate struct {
	TotalQuestions    int     `json:"total_questions"`
	SuccessfulAnswers int     `json:"successful_answers"`
	SuccessRate       float64 `json:"success_rate"`
	AvgPrecision      float64 `json:"avg_precision"`
	AvgRecall         float64 `json:"avg_recall"`
}

type EvalReport struct {
	Aggregate EvalAggregate `json:"aggregate"`
	Results   []EvalResult  `json:"results"`
}

type IndexedDocument struct {
	DocID  string `json:"doc_id"`
	Chunks int    `json:"chunks"`
}

type EvalDocReport struct {
	DocumentIndexed  IndexedDocument `json:"document_indexed"`
	QAPairsGenerated int             `json:"qa_pairs_generated"`
	Aggregate        EvalAggregate   `json:"aggregate"`
	Results          []EvalDocResult `json:"results"`
}

type chatAPI interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (*ai.ChatResult, error)
}

type EvalService struct {
	index       *IndexService
	pipeline    *Pipeline
	chat        chatAPI
	chatCfg     ai.ChatConfig
	datasetPath string
	qaPairs     int
}

func NewEvalService(
	index *IndexService,
	pipeline *Pipeline,
	chat chatAPI,
	chatCfg ai.ChatConfig,
	datasetPath string,
	qaPairs int,
) *EvalService {
	if datasetPath == "" {
		datasetPath = "eval/eval_dataset.json"
	}
	if qaPairs <= 0 {
		qaPairs = 5
	}
	return &EvalService{
		index:       index,
		pipeline:    pipeline,
		chat:        chat,
		chatCfg:     chatCfg,
		datasetPath: datasetPath,
		qaPairs:     qaPairs,
	}
}

// Run indexes each dataset item's context document, answers its question
// through the pipeline, and scores the answer by keyword overlap. Items run
// sequentially so one evaluation never saturates the upstream services.
func (s *EvalService) Run(ctx context.Context) (*EvalReport, error) {
	data, err := os.ReadFile(s.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("read eval dataset: %w", err)
	}
	var dataset []EvalItem
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("parse eval dataset: %w", err)
	}
	if len(dataset) == 0 {
		return nil, fmt.Errorf("%w: eval dataset is empty", rag.ErrValidation)
	}

	results := make([]EvalResult, 0, len(dataset))
	var agg aggregator
	for _, item := range dataset {
		source := fmt.Sprintf("eval_doc_%d", item.ID)
		title := fmt.Sprintf("Evaluation Document %d", item.ID)
		if _, err := s.index.Index(ctx, item.ContextDocument, title, source); err != nil {
			return nil, err
		}

		outcome, err := s.pipeline.Run(ctx, item.Question, nil)
		if err != nil {
			return nil, err
		}

		found, fraction := keywordOverlap(outcome.Answer, item.RelevantKeywords)
		success := outcome.HasAnswer && fraction >= 0.5
		agg.add(fraction, success)

		results = append(results, EvalResult{
			ID:            item.ID,
			Question:      item.Question,
			Answer:        truncateAnswer(outcome.Answer),
			Precision:     round3(fraction),
			Recall:        round3(fraction),
			Success:       success,
			FoundKeywords: found,
		})
	}

	return &EvalReport{Aggregate: agg.summary(), Results: results}, nil
}

// EvalDocument indexes the given text, asks the LLM to produce QA pairs
// from it, then runs each generated question through the pipeline and
// scores it the same way Run does.
func (s *EvalService) EvalDocument(ctx context.Context, text, title string) (*EvalDocReport, error) {
	indexed, err := s.index.Index(ctx, text, title, "eval_document")
	if err != nil {
		return nil, err
	}

	pairs, err := s.generateQAPairs(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no QA pairs generated", rag.ErrGenerationService)
	}

	results := make([]EvalDocResult, 0, len(pairs))
	var agg aggregator
	for _, item := range pairs {
		outcome, err := s.pipeline.Run(ctx, item.Question, nil)
		if err != nil {
			return nil, err
		}

		found, fraction := keywordOverlap(outcome.Answer, item.RelevantKeywords)
		success := outcome.HasAnswer && fraction >= 0.5
		agg.add(fraction, success)

		results = append(results, EvalDocResult{
			ID:               item.ID,
			Question:         item.Question,
			ExpectedAnswer:   item.ExpectedAnswer,
			ActualAnswer:     truncateAnswer(outcome.Answer),
			Precision:        round3(fraction),
			Recall:           round3(fraction),
			Success:          success,
			FoundKeywords:    found,
			ExpectedKeywords: item.RelevantKeywords,
		})
	}

	return &EvalDocReport{
		DocumentIndexed:  IndexedDocument{DocID: indexed.DocID, Chunks: indexed.ChunksIndexed},
		QAPairsGenerated: len(pairs),
		Aggregate:        agg.summary(),
		Results:          results,
	}, nil
}

func (s *EvalService) generateQAPairs(ctx context.Context, document string) ([]EvalItem, error) {
	runes := []rune(document)
	if len(runes) > evalDocLimit {
		document = string(runes[:evalDocLimit])
	}

	systemMsg := fmt.Sprintf(`You are an expert at creating evaluation question-answer pairs from documents.
Your task is to generate exactly %d diverse QA pairs that can be used to evaluate a RAG system.

RULES:
1. Create questions that require understanding of the document content
2. Questions should cover different topics/sections of the document
3. Include a mix of factual, conceptual, and analytical questions
4. Each answer should be answerable from the document
5. Extract 3-5 relevant keywords that MUST appear in a correct answer

You MUST respond with ONLY a valid JSON array, no other text.`, s.qaPairs)

	userMsg := fmt.Sprintf(`Document:
%s

Generate exactly %d QA pairs as a JSON array with this exact format:
[
  {
    "id": 1,
    "question": "Your question here?",
    "expected_answer": "The expected answer based on the document",
    "relevant_keywords": ["keyword1", "keyword2", "keyword3"]
  }
]

Respond with ONLY the JSON array, no markdown or other formatting.`, document, s.qaPairs)

	cfg := s.chatCfg
	cfg.Temperature = 0.3

	result, err := s.chat.Complete(ctx, cfg, []ai.ChatMessage{
		{Role: "system", Content: systemMsg},
		{Role: "user", Content: userMsg},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrGenerationService, err)
	}

	var pairs []EvalItem
	if err := json.Unmarshal([]byte(stripCodeFence(result.Content)), &pairs); err != nil {
		return nil, fmt.Errorf("%w: malformed QA pair response: %v", rag.ErrGenerationService, err)
	}
	return pairs, nil
}

// stripCodeFence tolerates models that wrap JSON output in a markdown
// code block despite the instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// keywordOverlap scores by case-insensitive substring match. Precision and
// recall share this fraction: with free-text answers there is no keyword
// count to normalize precision by, so both are found over expected.
func keywordOverlap(answer string, keywords []string) ([]string, float64) {
	found := []string{}
	if len(keywords) == 0 {
		return found, 0
	}
	lower := strings.ToLower(answer)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found, float64(len(found)) / float64(len(keywords))
}

func truncateAnswer(answer string) string {
	runes := []rune(answer)
	if len(runes) <= evalAnswerLimit {
		return answer
	}
	return string(runes[:evalAnswerLimit]) + "..."
}

func round3(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}

type aggregator struct {
	n         int
	successes int
	sum       float64
}

func (a *aggregator) add(fraction float64, success bool) {
	a.n++
	a.sum += fraction
	if success {
		a.successes++
	}
}

func (a *aggregator) summary() EvalAggregate {
	if a.n == 0 {
		return EvalAggregate{}
	}
	return EvalAggregate{
		TotalQuestions:    a.n,
		SuccessfulAnswers: a.successes,
		SuccessRate:       round3(float64(a.successes) / float64(a.n)),
		AvgPrecision:      round3(a.sum / float64(a.n)),
		AvgRecall:         round3(a.sum / float64(a.n)),
	}
}
