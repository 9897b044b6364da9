package openai

import (
	"context"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/inancsarica/boom-guru/internal/domain/ai"
)

const defaultModel = openai.GPT4o

// Client wraps an Azure OpenAI deployment behind the domain ai.Client port.
type Client struct {
	api   *openai.Client
	Model string
}

// NewAzureClient builds a client against an Azure OpenAI endpoint. All chat
// requests are routed to the given deployment regardless of model name.
func NewAzureClient(apiKey, endpoint, deployment, apiVersion, model string) *Client {
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		cfg.APIVersion = apiVersion
	}
	if deployment != "" {
		cfg.AzureModelMapperFunc = func(string) string { return deployment }
	}
	return &Client{api: openai.NewClientWithConfig(cfg), Model: model}
}

// NewClient builds a client against the public OpenAI API. Used by the
// webhook listener tooling and tests; production runs on Azure.
func NewClient(apiKey, model string) *Client {
	return &Client{api: openai.NewClient(apiKey), Model: model}
}

// Chat performs a single chat completion. No retries: the pipeline decides
// which stages tolerate failure. Every attempt is logged by session id.
func (c *Client) Chat(ctx context.Context, sessionID string, messages []ai.Message, temperature float32) (string, error) {
	model := c.Model
	if model == "" {
		model = defaultModel
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toChatMessages(messages),
		Temperature: temperature,
		TopP:        1,
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		zap.L().Error("openai call failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return "", &ai.CallError{SessionID: sessionID, Err: err}
	}
	if len(resp.Choices) == 0 {
		zap.L().Error("openai returned no choices", zap.String("session_id", sessionID))
		return "", &ai.CallError{SessionID: sessionID, Err: errNoChoices}
	}

	zap.L().Info("openai call succeeded", zap.String("session_id", sessionID))
	return resp.Choices[0].Message.Content, nil
}

// toChatMessages converts domain messages to the wire format. Single text
// blocks use the plain content field; anything multimodal uses MultiContent.
func toChatMessages(messages []ai.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		if len(m.Parts) == 1 && m.Parts[0].ImageURL == "" {
			out = append(out, openai.ChatCompletionMessage{
				Role:    m.Role,
				Content: m.Parts[0].Text,
			})
			continue
		}
		parts := make([]openai.ChatMessagePart, 0, len(m.Parts))
		for _, p := range m.Parts {
			if p.ImageURL != "" {
				parts = append(parts, openai.ChatMessagePart{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: p.ImageURL},
				})
				continue
			}
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			})
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:         m.Role,
			MultiContent: parts,
		})
	}
	return out
}
