package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/blackwell-systems/deproductify/internal/score"
)

const (
	geminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel    = "gemini-2.5-flash"
	defaultTimeout  = 10 * time.Second
	maxOutputTokens = 256
)

const classifyPrompt = `Analyze the following computer screen context and decide whether it looks like work or study.

Application Name: %s
Window Title: %s
Visible Text Content: %s

Respond ONLY with JSON in this format:
{
  "is_productive": true or false,
  "score": number between 0.0 and 1.0 for how productive the screen looks,
  "confidence": "high", "medium", "low" or "unsure",
  "reasoning": "one short sentence"
}

Indicators of productivity: lectures, textbooks, assignments, code editors,
office documents, research and writing, mathematical notation, professional tools.`

// GeminiConfig configures a Gemini client.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the API root, for tests.
	BaseURL string
}

// Gemini classifies contexts with the Gemini generateContent API.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGemini returns a client. It fails with ErrNoAPIKey when cfg.APIKey is
// empty.
func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = geminiBaseURL
	}
	return &Gemini{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Classify implements Classifier.
func (g *Gemini) Classify(ctx context.Context, c Context) (Result, error) {
	text := c.snippet()
	if text == "" {
		text = "(no text detected)"
	}
	prompt := fmt.Sprintf(classifyPrompt, c.AppName, c.WindowTitle, text)

	reply, err := g.generate(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("calling Gemini API: %w", err)
	}
	return parseReply(reply), nil
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{Temperature: 0.1, MaxOutputTokens: maxOutputTokens},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var gr geminiResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(respBytes, &gr) == nil && gr.Error != nil {
			return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, gr.Error.Message)
		}
		return "", fmt.Errorf("API returned status %d: %.200s", resp.StatusCode, respBytes)
	}
	if err := json.Unmarshal(respBytes, &gr); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if gr.Error != nil {
		return "", fmt.Errorf("API error: %s", gr.Error.Message)
	}

	var parts []string
	for _, cand := range gr.Candidates {
		for _, p := range cand.Content.Parts {
			parts = append(parts, p.Text)
		}
		if len(parts) > 0 {
			break
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text content in API response")
	}
	return strings.Join(parts, ""), nil
}

type replySchema struct {
	IsProductive bool     `json:"is_productive"`
	Score        *float64 `json:"score"`
	Confidence   string   `json:"confidence"`
	Reasoning    string   `json:"reasoning"`
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// parseReply reads the model's JSON answer. Replies that are not JSON are
// read as prose: productive wording without a negation counts as
// productive, and the tier is high only if the reply says it is confident.
func parseReply(reply string) Result {
	text := strings.TrimSpace(reply)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if m := jsonObject.FindString(text); m != "" {
		var s replySchema
		if err := json.Unmarshal([]byte(m), &s); err == nil {
			r := Result{Confidence: ParseConfidence(s.Confidence), Reasoning: s.Reasoning}
			switch {
			case s.Score != nil:
				r.Score = score.Clamp(*s.Score)
			case s.IsProductive:
				r.Score = 1
			}
			if r.Reasoning == "" {
				r.Reasoning = "no reasoning provided"
			}
			return r
		}
	}

	lower := strings.ToLower(text)
	r := Result{Confidence: ConfidenceUnsure, Reasoning: truncate(text, 200)}
	for _, w := range []string{"productive", "work", "professional", "educational"} {
		if strings.Contains(lower, w) {
			if !strings.Contains(lower, "not productive") {
				r.Score = 1
			}
			break
		}
	}
	if strings.Contains(lower, "confident") {
		r.Confidence = ConfidenceHigh
	}
	return r
}
