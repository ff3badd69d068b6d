package service

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/tieubaoca/docqa-be/types"
)

var systemMessageDocumentAssistant = openai.ChatCompletionMessage{
	Role: openai.ChatMessageRoleSystem,
	Content: "You are a document analysis assistant. Answer the user's questions using the " +
		"provided document context when available. If the context does not contain the answer, " +
		"say that you do not have enough information rather than guessing.",
}

const summarizerPrompt = "Summarize the following document content in a concise, factual way, " +
	"preserving key details, data, and structure. Focus on the most important points, and keep " +
	"the summary under 400 words.\n\nCONTENT:\n"

type OpenAIService struct {
	client *openai.Client
	model  string
}

func NewOpenAIService(baseURL, apiKey, model string) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL // Set this to your local LLM server URL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIService{
		client: client,
		model:  model,
	}
}

// ChatWithContext answers a question given chat history and optional
// document context.
func (s *OpenAIService) ChatWithContext(ctx context.Context, question string, history []types.Message, contextData string) (string, error) {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(history)+3)
	openaiMessages = append(openaiMessages, systemMessageDocumentAssistant)
	if contextData != "" {
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: contextData,
		})
	}
	for _, msg := range history {
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Messages:  openaiMessages,
			Model:     s.model,
			MaxTokens: 1500,
		},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response generated")
	}
	return resp.Choices[0].Message.Content, nil
}

// Summarize condenses long extracted content for context passing.
func (s *OpenAIService) Summarize(ctx context.Context, text string, maxTokens int) (string, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: "You are an expert document summarizer."},
				{Role: openai.ChatMessageRoleUser, Content: summarizerPrompt + text},
			},
			Model:     s.model,
			MaxTokens: maxTokens,
		},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response generated")
	}
	return resp.Choices[0].Message.Content, nil
}
