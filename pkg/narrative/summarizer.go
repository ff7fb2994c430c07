package narrative

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const systemPrompt = `You are a depot operations analyst. Given a daily courier
performance report, write a short recap (3-5 sentences) highlighting the best
performers, notable failures, and anything a station manager should follow up
on. Plain prose only, no markdown.`

// Summarizer turns a rendered daily report into a short prose recap.
type Summarizer struct {
	client    Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
}

// Config holds summarizer tuning knobs.
type Config struct {
	Model             string
	MaxTokens         int64
	RequestsPerMinute int
}

// NewSummarizer wires a Summarizer over the given client. A zero
// RequestsPerMinute disables rate limiting.
func NewSummarizer(client Client, cfg Config) *Summarizer {
	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	return &Summarizer{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		limiter:   limiter,
	}
}

// Summarize generates a recap for the given report text.
func (s *Summarizer) Summarize(ctx context.Context, report string) (string, error) {
	if strings.TrimSpace(report) == "" {
		return "", eris.New("narrative: empty report")
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "narrative: rate limit wait")
		}
	}

	resp, err := s.client.CreateMessage(ctx, MessageRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		System:    systemPrompt,
		Messages:  []Message{{Role: "user", Content: report}},
	})
	if err != nil {
		return "", eris.Wrap(err, "narrative: summarize")
	}

	zap.L().Info("narrative generated",
		zap.String("model", resp.Model),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)

	return strings.TrimSpace(resp.Text), nil
}
