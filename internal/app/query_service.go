package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ragserver/internal/model"
	"ragserver/internal/rag"
)

// QueryLogSink receives completed-query analytics events.
type QueryLogSink interface {
	Publish(ctx context.Context, entry model.QueryLog) error
}

// QueryResult is the response of a stateless query. Not persisted.
type QueryResult struct {
	Answer      string           `json:"answer"`
	Citations   []model.Citation `json:"citations"`
	HasAnswer   bool             `json:"has_answer"`
	TimingMS    float64          `json:"timing_ms"`
	TokenUsage  model.TokenUsage `json:"token_usage"`
	SourcesUsed int              `json:"sources_used"`
}

type QueryService struct {
	pipeline      *Pipeline
	logSink       QueryLogSink
	maxQueryChars int
	sem           chan struct{}
}

// NewQueryService bounds concurrent pipeline runs with a semaphore so
// bursts don't blow through upstream rate limits. logSink may be nil.
func NewQueryService(pipeline *Pipeline, logSink QueryLogSink, maxQueryChars, maxConcurrent int) *QueryService {
	if maxQueryChars <= 0 {
		maxQueryChars = 8192
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &QueryService{
		pipeline:      pipeline,
		logSink:       logSink,
		maxQueryChars: maxQueryChars,
		sem:           make(chan struct{}, maxConcurrent),
	}
}

func (s *QueryService) Query(ctx context.Context, query string) (*QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", rag.ErrValidation)
	}
	if len(query) > s.maxQueryChars {
		return nil, fmt.Errorf("%w: query exceeds %d chars", rag.ErrValidation, s.maxQueryChars)
	}

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	start := time.Now()
	result, err := s.pipeline.Run(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	timingMS := roundMS(time.Since(start))

	s.logQuery(query, result, timingMS)

	return &QueryResult{
		Answer:      result.Answer,
		Citations:   result.Citations,
		HasAnswer:   result.HasAnswer,
		TimingMS:    timingMS,
		TokenUsage:  result.Usage,
		SourcesUsed: result.SourcesUsed,
	}, nil
}

func (s *QueryService) logQuery(query string, result *PipelineResult, timingMS float64) {
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

func roundMS(d time.Duration) float64 {
	ms := float64(d.Microseconds()) / 1000
	return float64(int64(ms*100+0.5)) / 100
}
