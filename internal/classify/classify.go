// Package classify adapts the external semantic-classification
// collaborator. The adapter is invoked only when the pattern layer is
// inconclusive; a timeout or transport failure is a normal outcome
// reported as unavailable, never an error surfaced to the caller.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"baitline/internal/detect"

	openai "github.com/sashabaranov/go-openai"
)

// #region input-result

// Input bundles everything the collaborator sees for one turn.
type Input struct {
	Text     string
	History  []string // "counterpart: ..." / "subject: ..." lines, oldest first
	Metadata map[string]string
	Previous *detect.Signal // previous turn's combined signal, nil on turn 1
}

// Result is the normalized collaborator verdict.
type Result struct {
	Signal  detect.Signal
	Hostile bool // counterpart appears to have detected the engagement
}

// #endregion input-result

// #region adapter-interface

// Adapter is the collaborator contract. ok=false means unavailable
// (timeout, transport failure, unparseable output).
type Adapter interface {
	Classify(ctx context.Context, in Input) (Result, bool)
}

// #endregion adapter-interface

// #region disabled

// Disabled is an Adapter that is always unavailable. Used when no
// collaborator is configured; the combiner's safety-net floor takes over.
type Disabled struct{}

// Classify always reports unavailable.
func (Disabled) Classify(context.Context, Input) (Result, bool) {
	return Result{}, false
}

// #endregion disabled

// #region openai-adapter

// chatCompleter is the slice of the go-openai client the adapter needs.
// Tests inject a scripted implementation.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIAdapter classifies via an OpenAI-compatible chat completion API.
type OpenAIAdapter struct {
	client  chatCompleter
	model   string
	timeout time.Duration
}

// NewOpenAIAdapter creates an adapter against the given API endpoint.
// baseURL may be empty for the default OpenAI endpoint.
func NewOpenAIAdapter(apiKey, baseURL, model string, timeout time.Duration) *OpenAIAdapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIAdapter{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

// NewOpenAIAdapterWithClient creates an adapter with an injected client
// implementation. Used for testing without network access.
func NewOpenAIAdapterWithClient(client chatCompleter, model string, timeout time.Duration) *OpenAIAdapter {
	return &OpenAIAdapter{client: client, model: model, timeout: timeout}
}

// #endregion openai-adapter

// #region classify

const systemPrompt = `You classify inbound conversational messages for fraud.
Respond with a single JSON object, no prose:
{"is_scam": bool, "confidence": number 0..1, "category": one of
["credential_theft","account_threat","prize_lottery","phishing_link",
"authority_impersonation","advance_fee",""],
"counterpart_hostile": bool}
counterpart_hostile is true when the sender appears to suspect they are
not talking to a real victim.`

// Classify calls the collaborator within the configured timeout.
func (a *OpenAIAdapter) Classify(ctx context.Context, in Input) (Result, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(in)},
		},
		Temperature: 0.1,
	})
	if err != nil {
		log.Printf("[CLASSIFY] unavailable: %v", err)
		return Result{}, false
	}
	if len(resp.Choices) == 0 {
		log.Printf("[CLASSIFY] unavailable: empty response")
		return Result{}, false
	}

	result, err := parseClassification(resp.Choices[0].Message.Content)
	if err != nil {
		log.Printf("[CLASSIFY] unavailable: %v", err)
		return Result{}, false
	}
	return result, true
}

// buildUserPrompt assembles the turn context for the collaborator.
func buildUserPrompt(in Input) string {
	var b strings.Builder
	if len(in.History) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, line := range in.History {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	if in.Previous != nil {
		fmt.Fprintf(&b, "Previous verdict: is_scam=%v confidence=%.2f category=%s\n\n",
			in.Previous.IsScam, in.Previous.Confidence, in.Previous.Category)
	}
	for k, v := range in.Metadata {
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	b.WriteString("Message to classify:\n")
	b.WriteString(in.Text)
	return b.String()
}

// #endregion classify

// #region parse

type classificationJSON struct {
	IsScam             bool    `json:"is_scam"`
	Confidence         float64 `json:"confidence"`
	Category           string  `json:"category"`
	CounterpartHostile bool    `json:"counterpart_hostile"`
}

// parseClassification decodes the collaborator's JSON verdict, tolerating
// markdown code fences around the object.
func parseClassification(raw string) (Result, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var c classificationJSON
	if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
		return Result{}, fmt.Errorf("parse classification: %w", err)
	}

	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}

	return Result{
		Signal: detect.Signal{
			Source:     detect.SourceClassifier,
			IsScam:     c.IsScam,
			Confidence: c.Confidence,
			Category:   c.Category,
		},
		Hostile: c.CounterpartHostile,
	}, nil
}

// #endregion parse
