// Package ai wraps the Gemini generative-language API for the chat pipeline.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Request carries everything the generator needs for one turn
type Request struct {
	UserText string
	UserName string
	Industry string
	Language string // script-detected, used when the model's output doesn't parse
	History  string
}

// OutcomeKind tags how the model's output was interpreted
type OutcomeKind int

const (
	// OutcomeStructured means the model returned the expected JSON object
	OutcomeStructured OutcomeKind = iota
	// OutcomeRawFallback means the output wasn't valid JSON and the raw text
	// is used verbatim as the reply
	OutcomeRawFallback
)

// Result is the interpreted model output. On OutcomeRawFallback, Intent is
// "unknown", Sentiment is 0 and Language is the script-detected language from
// the request.
type Result struct {
	Kind      OutcomeKind
	Reply     string
	Intent    string
	Sentiment float64
	Language  string
}

// ErrEmptyResponse is returned when the model produces no usable text
var ErrEmptyResponse = errors.New("no response generated")

// Generator calls the Gemini generateContent endpoint. One blocking call per
// turn, no retries: a failed call fails the whole request.
type Generator struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewGenerator creates a Generator for the given model and endpoint
func NewGenerator(apiKey, model, endpoint string, timeout time.Duration) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		apiKey:     apiKey,
		model:      model,
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Gemini wire format

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate builds the structured prompt, invokes the model once and interprets
// the output. A transport or API failure returns an error; malformed model
// output degrades to OutcomeRawFallback instead.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	raw, err := g.invoke(ctx, g.buildPrompt(req))
	if err != nil {
		return nil, err
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyResponse
	}

	result := interpret(raw, req.Language)
	if strings.TrimSpace(result.Reply) == "" {
		// A parsed object with a blank reply is as unusable as no output
		return nil, ErrEmptyResponse
	}
	return result, nil
}

// GenerateText invokes the model with a bare prompt and returns the raw text.
// Used for follow-up surveys where no structured output is expected.
func (g *Generator) GenerateText(ctx context.Context, prompt string) (string, error) {
	raw, err := g.invoke(ctx, prompt)
	if err != nil {
		return "", err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyResponse
	}
	return raw, nil
}

// buildPrompt assembles the system instructions and the user message
func (g *Generator) buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful, empathetic customer service assistant for %s industry.\n", req.Industry)
	fmt.Fprintf(&b, "- Personalize: Greet as \"Hello %s!\" if appropriate.\n", req.UserName)
	b.WriteString("- Always respond in the SAME language as the user's message (detect automatically: support English, Hindi, Tamil, Telugu, Marathi, Bengali, Gujarati).\n")
	fmt.Fprintf(&b, "- Use context from history: %s\n", req.History)
	b.WriteString("- Be concise, professional, and solution-oriented. Suggest resolutions from common knowledge if possible.\n")
	b.WriteString("- Classify intent accurately: 'query' for info requests (e.g., 'what is balance?'), 'complaint' for problems/issues (e.g., 'account locked', 'failed payment'), 'escalate' for requests to human or complex, 'unknown' otherwise.\n")
	b.WriteString("- Sentiment: 0.0-1.0 score, higher=positive (e.g., frustration=low).\n")
	b.WriteString("IMPORTANT: Respond ONLY in this exact JSON format (no extra text or markdown):\n")
	b.WriteString("{\n")
	b.WriteString("  \"language\": \"Detected language name (e.g., 'Hindi', 'English')\",\n")
	b.WriteString("  \"reply\": \"Your full response here\",\n")
	b.WriteString("  \"intent\": \"query/complaint/escalate/unknown\",\n")
	b.WriteString("  \"sentiment_score\": 0.8\n")
	b.WriteString("}\n")
	fmt.Fprintf(&b, "\nUser message: %s", req.UserText)
	return b.String()
}

// invoke performs the single generateContent call
func (g *Generator) invoke(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.endpoint, g.model, g.apiKey)

	requestBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error (status %d): %s", resp.StatusCode, string(body))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	if geminiResp.Error != nil {
		return "", fmt.Errorf("Gemini API error: %s", geminiResp.Error.Message)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

// interpret parses the model's text into a Result, falling back to the raw
// text when it isn't the expected JSON object
func interpret(raw, detectedLanguage string) *Result {
	cleaned := stripCodeFence(raw)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return &Result{
			Kind:      OutcomeRawFallback,
			Reply:     raw,
			Intent:    "unknown",
			Sentiment: 0.0,
			Language:  detectedLanguage,
		}
	}

	result := &Result{
		Kind:      OutcomeStructured,
		Reply:     cleaned,
		Intent:    "unknown",
		Sentiment: 0.0,
		Language:  detectedLanguage,
	}

	if reply, ok := parsed["reply"].(string); ok {
		result.Reply = strings.TrimSpace(reply)
	}
	if intent, ok := parsed["intent"].(string); ok && intent != "" {
		result.Intent = intent
	}
	if score, ok := toFloat(parsed["sentiment_score"]); ok {
		result.Sentiment = score
	}
	if lang, ok := parsed["language"].(string); ok && lang != "" {
		result.Language = lang
	}

	return result
}

// stripCodeFence removes an optional ```json ... ``` wrapper
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
