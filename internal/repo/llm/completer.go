package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
)

// Completer issues one text completion: a system instruction plus a single
// user turn in, the model's text out.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	SystemInstruction string
	UserMessage       string
	// Operation labels the latency metric, e.g. "chat" or "insights".
	Operation string
}

type generateFunc func(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error)

type genkitCompleter struct {
	generate generateFunc
	model    string
	timeout  time.Duration
	latency  *prometheus.HistogramVec
}

func NewGenkitCompleter(g *genkit.Genkit, cfg *config.Config) (Completer, error) {
	generate := func(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
		return genkit.Generate(ctx, g, opts...)
	}
	return newCompleter(generate, cfg.LLM.Model, cfg.LLM.Timeout)
}

func newCompleter(generate generateFunc, model string, timeout time.Duration) (*genkitCompleter, error) {
	latency, err := util.GetHistogramVec("llm_completion_duration_seconds", "operation", "status")
	if err != nil {
		return nil, fmt.Errorf("register completion histogram: %w", err)
	}
	return &genkitCompleter{
		generate: generate,
		model:    model,
		timeout:  timeout,
		latency:  latency,
	}, nil
}

// Complete is bounded by the configured timeout. Every failure, including
// an empty reply, wraps models.ErrModelUnavailable.
func (c *genkitCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	op := req.Operation
	if op == "" {
		op = "default"
	}
	start := time.Now()
	status := "ok"
	defer func() {
		c.latency.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	}()

	resp, err := c.generate(ctx,
		ai.WithMessages(
			ai.NewSystemTextMessage(req.SystemInstruction),
			ai.NewUserTextMessage(req.UserMessage),
		),
		ai.WithModelName(c.model),
	)
	if err != nil {
		status = "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = "timeout"
		}
		return "", fmt.Errorf("%w: generate: %w", models.ErrModelUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		status = "empty"
		return "", fmt.Errorf("%w: empty completion", models.ErrModelUnavailable)
	}
	return text, nil
}
