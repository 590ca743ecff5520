package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/medreport-ai/internal/domain/ai"
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "openai/gpt-oss-120b"
	DefaultVisionModel = "meta-llama/llama-4-scout-17b-16e-instruct"
	DefaultTemperature = 0.7

	visionMaxTokens   = 4096
	visionTemperature = 0.1
)

// Config carries the credentials and sampling parameters of the
// completion service. It is passed in explicitly; nothing here reads the
// environment.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Temperature *float32 // nil selects DefaultTemperature
	TopP        float32
	Timeout     time.Duration
}

type Client struct {
	*openai.Client
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = DefaultVisionModel
	}
	if cfg.Temperature == nil {
		t := float32(DefaultTemperature)
		cfg.Temperature = &t
	}
	if cfg.TopP == 0 {
		cfg.TopP = 1
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{Client: openai.NewClientWithConfig(oc), cfg: cfg}
}

// Complete sends one non-streaming chat completion and returns the content
// of the first choice.
func (c *Client) Complete(ctx context.Context, messages []domai.Message, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:               c.cfg.Model,
		Messages:            make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature:         wireTemperature(*c.cfg.Temperature),
		TopP:                c.cfg.TopP,
		MaxCompletionTokens: maxTokens,
		Stream:              false,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return c.create(ctx, req)
}

// Transcribe sends the image inline as a data URL next to the instruction.
func (c *Client) Transcribe(ctx context.Context, instruction string, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
	req := openai.ChatCompletionRequest{
		Model:       c.cfg.VisionModel,
		Temperature: visionTemperature,
		MaxTokens:   visionMaxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: instruction},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
			},
		}},
	}
	return c.create(ctx, req)
}

func (c *Client) create(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuotaError(err) {
			return "", fmt.Errorf("%w: %v", domai.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", domai.ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// wireTemperature keeps an explicit 0 on the wire; go-openai omits a zero
// temperature and the provider would apply its own default.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
