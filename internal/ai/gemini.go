package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

type geminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (Model, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &geminiModel{client: client, model: model}, nil
}

func (m *geminiModel) Name() string { return "gemini:" + m.model }

func (m *geminiModel) Close() error { return m.client.Close() }

func (m *geminiModel) Complete(ctx context.Context, p Prompt) (string, error) {
	if len(p.Turns) == 0 {
		return "", errors.New("gemini: empty prompt")
	}

	gm := m.client.GenerativeModel(m.model)
	gm.SetTemperature(0.2)
	if p.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(p.MaxTokens))
	}
	if p.JSON {
		gm.ResponseMIMEType = "application/json"
	}
	if p.System != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}
	}

	chat := gm.StartChat()
	history := p.Turns[:len(p.Turns)-1]
	for _, t := range history {
		role := "user"
		if t.Role == "assistant" {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Content)}})
	}

	resp, err := chat.SendMessage(ctx, genai.Text(p.Turns[len(p.Turns)-1].Content))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
