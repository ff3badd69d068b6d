package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/tieubaoca/docqa-be/types"
	"google.golang.org/api/option"
)

// GeminiService is the alternate AIService backend. API keys rotate on
// quota errors.
type GeminiService struct {
	apiKeys    []string
	currentKey int
	client     *genai.Client
	modelName  string
	mu         sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName string) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}

	service := &GeminiService{
		apiKeys:    apiKeys,
		currentKey: 0,
		modelName:  modelName,
	}
	if err := service.initClient(); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *GeminiService) initClient() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return err
	}
	s.client = client
	return nil
}

func (s *GeminiService) rotateAPIKey() error {
	s.mu.Lock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	if err := s.client.Close(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.initClient()
}

func (s *GeminiService) ChatWithContext(ctx context.Context, question string, history []types.Message, contextData string) (string, error) {
	model := s.client.GenerativeModel(s.modelName)
	if contextData != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(contextData)},
		}
	}

	chat := model.StartChat()
	chat.History = make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{
			Parts: []genai.Part{genai.Text(msg.Content)},
			Role:  role,
		})
	}

	resp, err := chat.SendMessage(ctx, genai.Text(question))
	if err != nil {
		// A quota error on one key may clear up on the next
		if rotateErr := s.rotateAPIKey(); rotateErr != nil {
			return "", fmt.Errorf("gemini request failed: %w", err)
		}
		return "", err
	}
	return flattenGeminiResponse(resp)
}

func (s *GeminiService) Summarize(ctx context.Context, text string, maxTokens int) (string, error) {
	model := s.client.GenerativeModel(s.modelName)
	maxOutput := int32(maxTokens)
	model.GenerationConfig.MaxOutputTokens = &maxOutput

	resp, err := model.GenerateContent(ctx, genai.Text(summarizerPrompt+text))
	if err != nil {
		return "", err
	}
	return flattenGeminiResponse(resp)
}

func flattenGeminiResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response generated")
	}
	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}
	return builder.String(), nil
}
