package llm

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIAdapter serves the generic chat endpoint and the images endpoint
// through the OpenAI SDK.
type OpenAIAdapter struct {
	client *openai.Client
	config AdapterConfig
}

// NewOpenAIAdapter creates a new OpenAI adapter.
func NewOpenAIAdapter(config AdapterConfig) *OpenAIAdapter {
	client := openai.NewClient(config.APIKey)

	if config.BaseURL != "" {
		clientConfig := openai.DefaultConfig(config.APIKey)
		clientConfig.BaseURL = config.BaseURL
		client = openai.NewClientWithConfig(clientConfig)
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &OpenAIAdapter{
		client: client,
		config: config,
	}
}

// Provider implements ChatStreamer.
func (o *OpenAIAdapter) Provider() string { return "openAI" }

// StreamChat implements ChatStreamer.
func (o *OpenAIAdapter) StreamChat(ctx context.Context, params ChatParams, chunks chan<- StreamChunk) error {
	defer close(chunks)

	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, len(params.Messages))
	for i, msg := range params.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       params.Model,
		Messages:    messages,
		MaxTokens:   params.Tokens,
		Temperature: float32(params.Temperature),
		Stream:      true,
	}
	if params.TopP != nil {
		req.TopP = float32(*params.TopP)
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		err = goerr.Wrap(err, "openai stream request failed", goerr.V("model", params.Model))
		chunks <- StreamChunk{Error: err}
		return err
	}
	defer stream.Close()

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			chunks <- StreamChunk{Done: true}
			return nil
		}
		if err != nil {
			err = goerr.Wrap(err, "openai stream recv failed")
			chunks <- StreamChunk{Error: err}
			return err
		}

		if len(response.Choices) > 0 {
			// Empty deltas are normal; they contribute nothing.
			if content := response.Choices[0].Delta.Content; content != "" {
				chunks <- StreamChunk{Content: content}
			}
		}
	}
}

// GenerateImages performs a one-shot image generation call and returns the
// resulting URLs.
func (o *OpenAIAdapter) GenerateImages(ctx context.Context, params ImageParams) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         params.Prompt,
		Model:          params.Model,
		N:              params.NumberOfImages,
		Size:           params.Size,
		Style:          params.Style,
		Quality:        params.Quality,
		ResponseFormat: params.ResponseFormat,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "openai image generation failed", goerr.V("model", params.Model))
	}

	urls := make([]string, 0, len(resp.Data))
	for _, img := range resp.Data {
		urls = append(urls, img.URL)
	}
	return urls, nil
}

// CheckKey implements KeyChecker with a model-list call, the cheapest
// authenticated OpenAI request.
func (o *OpenAIAdapter) CheckKey(ctx context.Context) KeyStatus {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	_, err := o.client.ListModels(ctx)
	if err == nil {
		return KeyValid
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusUnauthorized {
		return KeyInvalid
	}
	return KeyIndeterminate
}
