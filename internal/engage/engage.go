// Package engage adapts the engagement-text collaborator: given the
// inbound message and what intelligence is still missing, it asks the
// generative service for a reply to keep the counterpart talking, plus
// any candidate entities the service spotted in the message. When the
// collaborator is unavailable the orchestrator falls back to an ordered
// list of canned replies; replies are never fabricated locally.
package engage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"baitline/internal/extract"
	"baitline/internal/session"

	openai "github.com/sashabaranov/go-openai"
)

// #region input-reply

// Input is the collaborator request for one turn.
type Input struct {
	Text              string
	History           []string
	Mode              session.Mode
	Accumulated       session.Intelligence
	MissingCategories []session.Category
}

// Reply is the collaborator's output: the engagement text and candidate
// entities it noticed (validated downstream, never trusted as-is).
type Reply struct {
	Text       string
	Candidates []extract.Candidate
}

// #endregion input-reply

// #region responder-interface

// Responder is the collaborator contract. ok=false means unavailable;
// the caller then uses Fallback.
type Responder interface {
	GenerateReply(ctx context.Context, in Input) (Reply, bool)
}

// #endregion responder-interface

// #region fallbacks

// fallbackReplies is the ordered canned list used when the collaborator
// is unavailable. Indexed by turn count so consecutive degraded turns
// do not repeat themselves.
var fallbackReplies = []string{
	"sorry I didn't get that, can you say it again?",
	"ok but how do I do that exactly?",
	"my network is acting up, can you send the details once more?",
	"wait, which number should I use?",
	"one minute, someone is at the door. what was the account again?",
}

// Fallback returns the canned reply for the given turn count.
func Fallback(turnCount int) string {
	if turnCount < 0 {
		turnCount = 0
	}
	return fallbackReplies[turnCount%len(fallbackReplies)]
}

// #endregion fallbacks

// #region disabled

// Disabled is a Responder that is always unavailable, forcing the
// canned fallback path.
type Disabled struct{}

// GenerateReply always reports unavailable.
func (Disabled) GenerateReply(context.Context, Input) (Reply, bool) {
	return Reply{}, false
}

// #endregion disabled

// #region openai-responder

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIResponder generates engagement replies via an OpenAI-compatible
// chat completion API.
type OpenAIResponder struct {
	client  chatCompleter
	model   string
	timeout time.Duration
}

// NewOpenAIResponder creates a responder against the given API endpoint.
func NewOpenAIResponder(apiKey, baseURL, model string, timeout time.Duration) *OpenAIResponder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIResponder{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

// NewOpenAIResponderWithClient creates a responder with an injected
// client implementation. Used for testing without network access.
func NewOpenAIResponderWithClient(client chatCompleter, model string, timeout time.Duration) *OpenAIResponder {
	return &OpenAIResponder{client: client, model: model, timeout: timeout}
}

const systemPrompt = `You keep a suspected scammer engaged in conversation.
Reply as the current persona would: plausible, slightly confused, never
volunteering real data. Also list any identifiers you notice in the
scammer's message. Respond with a single JSON object, no prose:
{"reply": string, "entities": [{"category": one of
["payment-handle","account-number","phone","contact-handle","url",
"email","reference-code","identity-name"], "value": string}]}`

// GenerateReply calls the collaborator within the configured timeout.
func (r *OpenAIResponder) GenerateReply(ctx context.Context, in Input) (Reply, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(in)},
		},
		Temperature: 0.7,
	})
	if err != nil {
		log.Printf("[ENGAGE] unavailable: %v", err)
		return Reply{}, false
	}
	if len(resp.Choices) == 0 {
		log.Printf("[ENGAGE] unavailable: empty response")
		return Reply{}, false
	}

	reply, err := parseReply(resp.Choices[0].Message.Content)
	if err != nil {
		log.Printf("[ENGAGE] unavailable: %v", err)
		return Reply{}, false
	}
	return reply, true
}

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
	fmt.Fprintf(&b, "Engagement mode: %s\n", in.Mode)
	if len(in.Accumulated) > 0 {
		b.WriteString("Already collected: ")
		first := true
		for _, cat := range session.Categories {
			values := in.Accumulated[cat]
			if len(values) == 0 {
				continue
			}
			if !first {
				b.WriteString("; ")
			}
			first = false
			fmt.Fprintf(&b, "%s=%s", cat, strings.Join(values, ","))
		}
		b.WriteString("\nDo not ask for these again.\n")
	}
	if len(in.MissingCategories) > 0 {
		b.WriteString("Still missing: ")
		for i, cat := range in.MissingCategories {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(string(cat))
		}
		b.WriteString("\nSteer toward obtaining these.\n")
	}
	b.WriteString("Latest message:\n")
	b.WriteString(in.Text)
	return b.String()
}

// #endregion openai-responder

// #region parse

type replyJSON struct {
	Reply    string              `json:"reply"`
	Entities []extract.Candidate `json:"entities"`
}

// parseReply decodes the collaborator's JSON output, tolerating
// markdown code fences.
func parseReply(raw string) (Reply, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var r replyJSON
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return Reply{}, fmt.Errorf("parse reply: %w", err)
	}
	if strings.TrimSpace(r.Reply) == "" {
		return Reply{}, fmt.Errorf("parse reply: empty reply text")
	}
	return Reply{Text: r.Reply, Candidates: r.Entities}, nil
}

// #endregion parse
