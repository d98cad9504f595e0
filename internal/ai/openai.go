package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/myrjola/liftcoach/internal/errors"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.ChatModelGPT4oMini

var ErrEmptyResponse = errors.NewSentinel("model returned no content")

// OpenAIClient generates text with the OpenAI chat completions API.
type OpenAIClient struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIClient creates a client authenticated with apiKey. An empty model selects DefaultModel.
// Extra request options such as option.WithBaseURL are appended after the key.
func NewOpenAIClient(apiKey, model string, logger *slog.Logger, opts ...option.RequestOption) *OpenAIClient {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIClient{
		client: openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
		model:  model,
		logger: logger,
	}
}

// GenerateText sends messages as one chat completion and returns the first choice.
func (c *OpenAIClient) GenerateText(ctx context.Context, messages []Message, opts Options) (Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(opts.MaxTokens)
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, errors.Wrap(err, "chat completion",
			slog.String("model", c.model), slog.String("kind", string(Classify(err))))
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "received chat completion",
		slog.String("model", c.model),
		slog.Duration("duration", time.Since(start)),
		slog.Int64("prompt_tokens", completion.Usage.PromptTokens),
		slog.Int64("completion_tokens", completion.Usage.CompletionTokens))

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return Response{}, ErrEmptyResponse
	}
	return Response{Content: completion.Choices[0].Message.Content}, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
