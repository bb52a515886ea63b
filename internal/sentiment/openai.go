package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const classifierPrompt = "You label the sentiment of social media comments. " +
	"Reply with exactly one word: positive, negative, or neutral."

// OpenAIAnalyzer classifies comment text with a chat model. Used when an API
// key is configured, otherwise the lexicon analyzer stands in.
type OpenAIAnalyzer struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAIAnalyzer(apiKey, model string) *OpenAIAnalyzer {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAIAnalyzer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, text string) (string, float64, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifierPrompt),
			openai.UserMessage(text),
		},
		MaxTokens:   openai.Int(3),
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", 0, fmt.Errorf("sentiment model call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, fmt.Errorf("sentiment model returned no choices")
	}

	label := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	switch label {
	case "positive", "negative", "neutral":
		return label, 0.9, nil
	}
	// Off-script answers get the safe label instead of an error.
	return "neutral", 0.3, nil
}
