package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/globlecampus/campus-api/pkg/config"
)

// identityPreamble anchors the assistant's persona before any user turn.
const identityPreamble = "I am an AI assistant created by GlobalCampus to help students " +
	"with their studies, learning materials, and campus life questions."

// Assistant answers a single user prompt. Implementations should honour
// the context deadline.
type Assistant interface {
	Ask(ctx context.Context, prompt, language string) (string, error)
}

// GeminiAssistant talks to the Gemini API with a fixed identity preamble.
type GeminiAssistant struct {
	client *genai.Client
	model  string
}

// NewGeminiAssistant dials the Gemini API. The client must be closed via Close.
func NewGeminiAssistant(ctx context.Context, cfg config.ChatConfig) (*GeminiAssistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("chat API key missing")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiAssistant{client: client, model: model}, nil
}

// Close releases the underlying API client.
func (g *GeminiAssistant) Close() error {
	return g.client.Close()
}

// Ask sends a prompt through a chat session seeded with the identity
// preamble. A non-empty language adds an answer-language instruction.
func (g *GeminiAssistant) Ask(ctx context.Context, prompt, language string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is empty")
	}

	model := g.client.GenerativeModel(g.model)
	session := model.StartChat()
	session.History = []*genai.Content{
		{
			Role:  "user",
			Parts: []genai.Part{genai.Text("Who are you?")},
		},
		{
			Role:  "model",
			Parts: []genai.Part{genai.Text(identityPreamble)},
		},
	}

	message := prompt
	if language != "" {
		message = fmt.Sprintf("(Please answer in %s) %s", language, prompt)
	}

	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}

	return extractText(resp), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break
	}
	return sb.String()
}
