// Package enhance rewrites post drafts through a generative text model.
//
// Enhancement is best effort. Callers always get text back: the rewritten
// draft when the model answered, the original draft otherwise, together with
// the reason it was left unchanged.
package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Reasons reported when the text comes back unchanged.
const (
	ReasonEmpty        = "empty_input"
	ReasonDisabled     = "disabled"
	ReasonRequest      = "request_failed"
	ReasonStatus       = "bad_status"
	ReasonNoCandidates = "no_candidates"
)

// Result is either Enhanced (Text is the rewrite) or unchanged (Text is the
// input and Reason says why).
type Result struct {
	Text     string `json:"text"`
	Enhanced bool   `json:"enhanced"`
	Reason   string `json:"reason,omitempty"`
}

func unchanged(text, reason string) Result {
	return Result{Text: text, Reason: reason}
}

// Outcome is the metrics label for r.
func (r Result) Outcome() string {
	if r.Enhanced {
		return "enhanced"
	}
	return r.Reason
}

type Enhancer interface {
	Enhance(ctx context.Context, text string) Result
}

// Disabled never calls out.
type Disabled struct{}

func (Disabled) Enhance(_ context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return unchanged(text, ReasonEmpty)
	}
	return unchanged(text, ReasonDisabled)
}

const promptTemplate = `قم بتحسين نص المنشور التالي لوسائل التواصل الاجتماعي ليكون أكثر جاذبية واحترافية، مع الحفاظ على المعنى الأصلي.
الرد يجب أن يكون النص المحسن فقط بدون مقدمات أو شرح.

النص الأصلي: "%s"`

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Gemini calls the Generative Language REST API.
type Gemini struct {
	client *resty.Client
	cfg    Config
	logger *slog.Logger
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// NewGemini builds the client. With an empty API key every call returns the
// input unchanged.
func NewGemini(cfg Config, logger *slog.Logger) *Gemini {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("enhance request", slog.String("model", cfg.Model))
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("enhance response",
			slog.Int("status", resp.StatusCode()),
			slog.Duration("duration", resp.Time()),
		)
		return nil
	})

	return &Gemini{client: client, cfg: cfg, logger: logger}
}

func (g *Gemini) Enhance(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return unchanged(text, ReasonEmpty)
	}
	if g.cfg.APIKey == "" {
		g.logger.Warn("enhance skipped: no API key configured")
		return unchanged(text, ReasonDisabled)
	}

	var out generateResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("model", g.cfg.Model).
		SetQueryParam("key", g.cfg.APIKey).
		SetBody(generateRequest{Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: fmt.Sprintf(promptTemplate, text)}},
		}}}).
		SetResult(&out).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		g.logger.Error("enhance request failed", slog.String("error", err.Error()))
		return unchanged(text, ReasonRequest)
	}
	if resp.StatusCode() != http.StatusOK {
		g.logger.Error("enhance request rejected", slog.Int("status", resp.StatusCode()))
		return unchanged(text, ReasonStatus)
	}

	for _, c := range out.Candidates {
		var b strings.Builder
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		if rewritten := strings.TrimSpace(b.String()); rewritten != "" {
			return Result{Text: rewritten, Enhanced: true}
		}
	}
	return unchanged(text, ReasonNoCandidates)
}
