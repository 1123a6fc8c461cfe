package ai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = openai.GPT4oMini

type openAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(apiKey, model string) Model {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIModel{client: openai.NewClient(apiKey), model: model}
}

func (m *openAIModel) Name() string { return "openai:" + m.model }

func (m *openAIModel) Complete(ctx context.Context, p Prompt) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(p.Turns)+1)
	if p.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	for _, t := range p.Turns {
		role := openai.ChatMessageRoleUser
		if t.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:     m.model,
		Messages:  msgs,
		MaxTokens: p.MaxTokens,
	}
	if p.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no content generated")
	}
	return resp.Choices[0].Message.Content, nil
}
