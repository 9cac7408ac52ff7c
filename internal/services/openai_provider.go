package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider backs chat completion, Whisper transcription and image
// generation with the OpenAI API.
type OpenAIProvider struct {
	client     *openai.Client
	chatModel  string
	imageModel string
	httpClient *http.Client
}

func NewOpenAIProvider(apiKey, chatModel, imageModel string) *OpenAIProvider {
	if chatModel == "" {
		chatModel = openai.GPT4o
	}
	if imageModel == "" {
		imageModel = openai.CreateImageModelDallE3
	}
	return &OpenAIProvider{
		client:     openai.NewClient(apiKey),
		chatModel:  chatModel,
		imageModel: imageModel,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.chatModel,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Language: language,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %v", err)
	}
	return resp.Text, nil
}

// GenerateImage asks for one square dish image and always resolves it to
// bytes, whatever answer format the API picks.
func (p *OpenAIProvider) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Model:          p.imageModel,
		Prompt:         prompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, "", fmt.Errorf("image generation failed: %v", err)
	}
	if len(resp.Data) == 0 {
		return nil, "", fmt.Errorf("image generation returned no data")
	}

	item := resp.Data[0]
	if item.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode image payload: %v", err)
		}
		return data, "image/png", nil
	}
	if item.URL != "" {
		return p.resolveImageURL(ctx, item.URL)
	}
	return nil, "", fmt.Errorf("image generation returned neither data nor url")
}

// resolveImageURL handles the two URL shapes image APIs answer with: a data
// URL carrying the payload inline, or a plain remote URL.
func (p *OpenAIProvider) resolveImageURL(ctx context.Context, imageURL string) ([]byte, string, error) {
	if strings.HasPrefix(imageURL, "data:") {
		header, payload, found := strings.Cut(imageURL, ",")
		if !found {
			return nil, "", fmt.Errorf("malformed data url")
		}
		contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode data url: %v", err)
		}
		return data, contentType, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download generated image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}
