package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tieubaoca/docqa-be/cache"
	"github.com/tieubaoca/docqa-be/repository"
	"github.com/tieubaoca/docqa-be/types"
	"github.com/tieubaoca/docqa-be/utils"
)

const historyWindow = 5

const searchUnavailableMessage = "I was unable to search the web for additional information. " +
	"Please try rephrasing your question or ask about a different topic."

// Phrases the AI layer produces when the document context does not hold
// the answer. Any of them triggers the web-search fallback.
var noInfoPhrases = []string{
	"do not have enough information",
	"don't have enough information",
	"cannot find",
	"no information",
	"not mentioned in the",
}

// ChatService answers questions about a chat's attached documents, with
// an answer cache in front of the AI layer and a web-search fallback
// behind it.
type ChatService struct {
	repo       repository.ChatRepo
	ai         AIService
	searcher   WebSearcher
	contextBld *ContextBuilder
	queries    *cache.QueryCache

	mu          sync.Mutex
	accessCount map[string]float64
}

func NewChatService(repo repository.ChatRepo, ai AIService, searcher WebSearcher, contextBld *ContextBuilder, queries *cache.QueryCache) *ChatService {
	return &ChatService{
		repo:        repo,
		ai:          ai,
		searcher:    searcher,
		contextBld:  contextBld,
		queries:     queries,
		accessCount: make(map[string]float64),
	}
}

// Ask answers one question in the given chat. Cached answers are returned
// without touching the AI layer, but the exchange is still recorded in
// chat history.
func (s *ChatService) Ask(ctx context.Context, req *types.ChatRequest) (*types.ChatAnswer, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.New("message is empty")
	}
	if _, err := s.repo.GetChat(ctx, req.ChatID); err != nil {
		return nil, errors.New("chat not found")
	}

	fingerprint := utils.QueryFingerprint(req.Message)
	frequency := s.bumpAccess(req.ChatID, fingerprint)

	if cached, ok := s.queries.Get(req.ChatID, fingerprint); ok {
		if answer, isString := cached.(string); isString {
			logrus.Infof("[CHAT] Cache hit for chat %s", req.ChatID)
			if err := s.recordExchange(ctx, req.ChatID, req.Message, answer); err != nil {
				return nil, err
			}
			return &types.ChatAnswer{
				ChatID:    req.ChatID,
				Message:   answer,
				Cached:    true,
				Timestamp: time.Now(),
			}, nil
		}
	}

	contextData, err := s.buildFileContext(ctx, req.ChatID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.GetMessages(ctx, req.ChatID, historyWindow)
	if err != nil {
		return nil, err
	}

	answer, err := s.ai.ChatWithContext(ctx, req.Message, history, contextData)
	if err != nil || lacksInformation(answer) {
		if err != nil {
			logrus.Errorf("[CHAT] AI request failed for chat %s: %v", req.ChatID, err)
		}
		answer = s.answerFromWeb(ctx, req.Message, history)
	}

	if err := s.recordExchange(ctx, req.ChatID, req.Message, answer); err != nil {
		return nil, err
	}
	s.queries.Set(req.ChatID, fingerprint, answer, cache.AdaptiveTTL(0, frequency))

	return &types.ChatAnswer{
		ChatID:    req.ChatID,
		Message:   answer,
		Cached:    false,
		Timestamp: time.Now(),
	}, nil
}

// answerFromWeb retries the question with search results as context. A
// failed search degrades to a fixed apology rather than an error.
func (s *ChatService) answerFromWeb(ctx context.Context, question string, history []types.Message) string {
	if s.searcher == nil {
		return searchUnavailableMessage
	}
	results, err := s.searcher.Search(ctx, question)
	if err != nil || len(results) == 0 {
		logrus.Warnf("[CHAT] Web search fallback failed: %v", err)
		return searchUnavailableMessage
	}
	answer, err := s.ai.ChatWithContext(ctx, question, history, FormatSearchContext(results))
	if err != nil {
		logrus.Errorf("[CHAT] AI request with search context failed: %v", err)
		return searchUnavailableMessage
	}
	return answer
}

func (s *ChatService) buildFileContext(ctx context.Context, chatID string) (string, error) {
	fileData, err := s.repo.GetLatestFileData(ctx, chatID)
	if err != nil {
		return "", err
	}
	if fileData == nil {
		return "", nil
	}
	return s.contextBld.BuildContext(ctx, fileData.Filename, fileContentString(fileData.Content)), nil
}

func (s *ChatService) recordExchange(ctx context.Context, chatID, question, answer string) error {
	if err := s.repo.AddMessage(ctx, chatID, "user", question); err != nil {
		return err
	}
	return s.repo.AddMessage(ctx, chatID, "assistant", answer)
}

func (s *ChatService) bumpAccess(chatID, fingerprint string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := chatID + ":" + fingerprint
	s.accessCount[key]++
	return s.accessCount[key]
}

// fileContentString flattens stored file content to text. Enhanced results
// contribute their markdown directly; everything else is serialized as
// JSON so tabular records survive as readable rows.
func fileContentString(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case types.EnhancedContent:
		return v.MarkdownContent
	case map[string]any:
		// Enhanced content decoded from storage keeps its markdown field
		if markdown, ok := v["markdown_content"].(string); ok && markdown != "" {
			return markdown
		}
	}
	serialized, err := json.Marshal(content)
	if err != nil {
		logrus.Warnf("[CHAT] Failed to serialize file content: %v", err)
		return ""
	}
	return string(serialized)
}

func lacksInformation(answer string) bool {
	lowered := strings.ToLower(answer)
	for _, phrase := range noInfoPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
