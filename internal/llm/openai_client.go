// ABOUTME: OpenAI client for intent classification, response drafting and embeddings
// ABOUTME: Uses gpt-4o-mini for chat and text-embedding-3-small for embeddings (configurable)
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harper/frontdesk/internal/config"
	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel openai.EmbeddingModel
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

// ConfigFrom builds a client configuration from service configuration
func ConfigFrom(cfg *config.Config) *ClientConfig {
	cc := &ClientConfig{
		APIKey:         cfg.OpenAIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
		RetryDelay:     cfg.RetryDelay,
	}
	if cc.ChatModel == "" {
		cc.ChatModel = DefaultChatModel
	}
	if cc.EmbeddingModel == "" {
		cc.EmbeddingModel = DefaultEmbeddingModel
	}
	return cc
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	timeout        time.Duration
	maxRetries     int
	retryDelay     time.Duration
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(cfg *ClientConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoClient
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		timeout:        timeout,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay,
	}, nil
}

// GetClient returns the underlying OpenAI client for direct use
func (c *OpenAIClient) GetClient() *openai.Client {
	return c.client
}

// Classify asks the model for one label of the fixed set and a confidence
func (c *OpenAIClient) Classify(ctx context.Context, text string) (Classification, error) {
	labels := make([]string, len(models.AllIntents))
	for i, in := range models.AllIntents {
		labels[i] = string(in)
	}

	systemPrompt := "Classify the user's support intent into exactly one label from this list: " +
		strings.Join(labels, ", ") + `. Return ONLY a JSON object with keys "intent" and "confidence" (0.0 to 1.0).`

	var out Classification
	err := c.chat(ctx, systemPrompt, text, 0.0, true, func(content string) error {
		var payload struct {
			Intent     string   `json:"intent"`
			Confidence *float64 `json:"confidence"`
		}
		if err := json.Unmarshal([]byte(content), &payload); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
		intent := models.Intent(strings.TrimSpace(payload.Intent))
		if !intent.Valid() || payload.Confidence == nil {
			return fmt.Errorf("%w: %q", ErrInvalidClassification, content)
		}
		out = Classification{Intent: intent, Confidence: ClampConfidence(*payload.Confidence)}
		return nil
	})
	if err != nil {
		return Classification{}, fmt.Errorf("classify intent: %w", err)
	}
	return out, nil
}

// Draft writes a short reply grounded in the given policies and references
func (c *OpenAIClient) Draft(ctx context.Context, req DraftRequest) (string, error) {
	systemPrompt := "You are an operational customer support assistant for a hearing and balance clinic. " +
		"Never diagnose. Be concise. Use provided policy and references only. " +
		"If references are insufficient, ask for clarification or offer escalation."

	policiesJSON, err := json.Marshal(req.Policies)
	if err != nil {
		return "", fmt.Errorf("marshal policies: %w", err)
	}

	var refs strings.Builder
	for _, ref := range req.References {
		fmt.Fprintf(&refs, "- %s (%s): %s\n", ref.Title, ref.SourceURL, ref.Snippet)
	}
	if refs.Len() == 0 {
		refs.WriteString("- none\n")
	}

	userPrompt := fmt.Sprintf("Intent: %s\nChannel: %s\nPolicies: %s\nReferences:\n%sUser query: %s",
		req.Intent, req.Channel, policiesJSON, refs.String(), req.Query)

	var out string
	err = c.chat(ctx, systemPrompt, userPrompt, 0.3, false, func(content string) error {
		out = strings.TrimSpace(content)
		if out == "" {
			return fmt.Errorf("empty completion")
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("draft response: %w", err)
	}
	return out, nil
}

// Embed generates an embedding vector for text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: c.embeddingModel,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return fmt.Errorf("no embeddings returned")
		}
		out = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	return out, nil
}

// chat runs one chat completion with retries; parse decides whether the reply is usable
func (c *OpenAIClient) chat(ctx context.Context, systemPrompt, userPrompt string, temperature float32, jsonMode bool, parse func(string) error) error {
	req := openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: temperature,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned")
		}
		return parse(resp.Choices[0].Message.Content)
	})
}
