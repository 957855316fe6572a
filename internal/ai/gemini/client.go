// Package gemini adapts the Gemini API to the conversation ports: intent
// classification, language detection, reply generation and composition.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
	"github.com/lrz80/chatbot-backend-sub001/platform/config"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// Client calls Gemini for every LLM-backed port of the turn pipeline.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

// NewClient creates the Gemini client.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *logger.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		client:  client,
		model:   cfg.GetGeminiModel(),
		timeout: cfg.GetGeminiTimeout(),
		log:     log,
	}, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// DetectIntent classifies the message into a raw intent label plus an
// interest level 1..5.
func (c *Client) DetectIntent(ctx context.Context, text string) (conversation.DetectedIntent, error) {
	prompt := fmt.Sprintf(`Classify the customer message for a business chatbot.
Respond with ONLY a JSON object, no prose:
{"intent": "<one word, spanish, e.g. precio|agendar|pagar|ubicacion|horario|comprar|informacion|soporte|politicas|gift_card>", "nivel": <integer 1-5, purchase interest>}

Message: %q`, text)

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return conversation.DetectedIntent{}, err
	}

	var parsed struct {
		Intent string `json:"intent"`
		Nivel  int    `json:"nivel"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return conversation.DetectedIntent{}, fmt.Errorf("parse intent response %q: %w", raw, err)
	}

	return conversation.DetectedIntent{Intent: parsed.Intent, Nivel: parsed.Nivel}, nil
}

// DetectLanguage returns the ISO 639-1 code of the message language.
func (c *Client) DetectLanguage(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Identify the language of this message.
Respond with ONLY the two-letter ISO 639-1 code (e.g. es, en, pt).

Message: %q`, text)

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	code := strings.ToLower(strings.TrimSpace(raw))
	if len(code) != 2 {
		return "", fmt.Errorf("unexpected language response %q", raw)
	}
	return code, nil
}

// Generate drafts the reply for a turn from the tenant prompt, optionally
// constrained by structured facts a gate produced.
func (c *Client) Generate(ctx context.Context, promptBase, lang, userText string, facts map[string]string) (string, error) {
	var sb strings.Builder
	sb.WriteString(promptBase)
	sb.WriteString("\n\nReply in language: ")
	sb.WriteString(lang)
	sb.WriteString("\nKeep the reply short and conversational, suited to a messaging app.")

	if len(facts) > 0 {
		sb.WriteString("\n\nThe reply MUST communicate these facts and nothing that contradicts them:\n")
		for key, value := range facts {
			sb.WriteString("- ")
			sb.WriteString(key)
			sb.WriteString(": ")
			sb.WriteString(value)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nCustomer message: ")
	sb.WriteString(userText)

	return c.generate(ctx, sb.String())
}

// Compose stitches several factual answer snippets into one coherent reply.
func (c *Client) Compose(ctx context.Context, lang string, parts []string) (string, error) {
	prompt := fmt.Sprintf(`Combine the following answer snippets into ONE short, natural reply in language %q.
Do not invent information beyond the snippets.

%s`, lang, strings.Join(parts, "\n---\n"))

	return c.generate(ctx, prompt)
}

// extractJSON trims markdown fences and surrounding prose off a model
// response that should be a JSON object.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
