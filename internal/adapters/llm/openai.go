package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/logger"
)

// OpenAILLM implements ports.LLMService with chat completions.
type OpenAILLM struct {
	client      openai.Client
	model       string
	temperature float64
	log         *logger.Logger
}

// NewOpenAILLM creates a chat adapter. The prompt is sent as a single user message.
func NewOpenAILLM(client openai.Client, model string, temperature float64, log *logger.Logger) *OpenAILLM {
	if model == "" {
		model = string(openai.ChatModelGPT4)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OpenAILLM{
		client:      client,
		model:       model,
		temperature: temperature,
		log:         log,
	}
}

func (l *OpenAILLM) params(prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(l.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(l.temperature),
	}
}

// Generate produces a complete response for the prompt.
func (l *OpenAILLM) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := l.client.Chat.Completions.New(ctx, l.params(prompt))
	if err != nil {
		return "", errs.Provider("openai chat", err)
	}
	if len(resp.Choices) == 0 {
		return "", errs.Provider("openai chat", fmt.Errorf("no choices returned"))
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream streams completion deltas. Request failures surface as the
// first token's Error since the stream opens lazily.
func (l *OpenAILLM) GenerateStream(ctx context.Context, prompt string) (<-chan ports.StreamToken, error) {
	stream := l.client.Chat.Completions.NewStreaming(ctx, l.params(prompt))
	ch := make(chan ports.StreamToken, 100)

	go func() {
		defer close(ch)
		defer stream.Close()

		deltas := 0
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			content := chunk.Choices[0].Delta.Content
			if content == "" {
				continue
			}
			deltas++
			if !send(ctx, ch, ports.StreamToken{Content: content}) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			send(ctx, ch, ports.StreamToken{Done: true, Error: errs.Provider("openai stream", err)})
			return
		}
		l.log.Debug("openai stream finished", "model", l.model, "deltas", deltas)
		send(ctx, ch, ports.StreamToken{Done: true})
	}()

	return ch, nil
}
