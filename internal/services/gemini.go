package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// GeminiClient serves LLMClient through the Gemini API. The genai client is
// created on first use so a missing key only fails at analysis time; a failed
// creation is retried on the next call.
type GeminiClient struct {
	apiKey      string
	modelName   string
	temperature float32
	maxTokens   int

	newClient func(ctx context.Context, cc *genai.ClientConfig) (*genai.Client, error)
	mu        sync.Mutex
	client    *genai.Client
}

func NewGeminiClient(apiKey, modelName string, temperature float32, maxTokens int) *GeminiClient {
	return &GeminiClient{
		apiKey:      apiKey,
		modelName:   modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
		newClient:   genai.NewClient,
	}
}

func (g *GeminiClient) genaiClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	client, err := g.newClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	g.client = client
	return client, nil
}

// Complete implements LLMClient.
func (g *GeminiClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrMissingCredential
	}

	client, err := g.genaiClient(ctx)
	if err != nil {
		return "", err
	}

	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		MaxOutputTokens:   int32(g.maxTokens),
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	resp, err := client.Models.GenerateContent(ctx, g.modelName, genai.Text(userPrompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", errors.New("no response generated (nil response)")
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("no text content in response")
	}

	return text, nil
}
