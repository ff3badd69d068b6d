package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/docqa-be/cache"
	"github.com/tieubaoca/docqa-be/types"
)

// memoryChatRepo is an in-memory repository.ChatRepo for tests.
type memoryChatRepo struct {
	chats    map[string]*types.Chat
	messages map[string][]types.ChatMessage
	files    map[string][]*types.FileData
	nextID   int
}

func newMemoryChatRepo() *memoryChatRepo {
	return &memoryChatRepo{
		chats:    make(map[string]*types.Chat),
		messages: make(map[string][]types.ChatMessage),
		files:    make(map[string][]*types.FileData),
	}
}

func (m *memoryChatRepo) CreateChat(ctx context.Context, name string) (*types.Chat, error) {
	m.nextID++
	chat := &types.Chat{ID: string(rune('a' + m.nextID)), Name: name, CreatedAt: time.Now()}
	m.chats[chat.ID] = chat
	return chat, nil
}

func (m *memoryChatRepo) GetChat(ctx context.Context, id string) (*types.Chat, error) {
	chat, ok := m.chats[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return chat, nil
}

func (m *memoryChatRepo) AddMessage(ctx context.Context, chatID, role, content string) error {
	m.messages[chatID] = append(m.messages[chatID], types.ChatMessage{
		ChatID: chatID, Role: role, Content: content, CreatedAt: time.Now(),
	})
	return nil
}

func (m *memoryChatRepo) GetMessages(ctx context.Context, chatID string, limit int) ([]types.Message, error) {
	stored := m.messages[chatID]
	if limit > 0 && len(stored) > limit {
		stored = stored[len(stored)-limit:]
	}
	messages := make([]types.Message, len(stored))
	for i, msg := range stored {
		messages[i] = types.Message{Role: msg.Role, Content: msg.Content}
	}
	return messages, nil
}

func (m *memoryChatRepo) AddFileData(ctx context.Context, data *types.FileData) error {
	m.files[data.ChatID] = append(m.files[data.ChatID], data)
	return nil
}

func (m *memoryChatRepo) GetLatestFileData(ctx context.Context, chatID string) (*types.FileData, error) {
	files := m.files[chatID]
	if len(files) == 0 {
		return nil, nil
	}
	return files[len(files)-1], nil
}

type fakeSearcher struct {
	results []SearchResult
	err     error
	calls   int
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]SearchResult, error) {
	f.calls++
	return f.results, f.err
}

func newTestChatService(repo *memoryChatRepo, ai AIService, searcher WebSearcher) *ChatService {
	queries := cache.NewQueryCache(cache.NewInMemoryCache())
	return NewChatService(repo, ai, searcher, NewContextBuilder(ai, 2000, 400), queries)
}

func seedChat(t *testing.T, repo *memoryChatRepo) string {
	t.Helper()
	chat, err := repo.CreateChat(context.Background(), "test chat")
	require.NoError(t, err)
	return chat.ID
}

func TestAskAnswersAndCaches(t *testing.T) {
	repo := newMemoryChatRepo()
	ai := &fakeAI{answer: "the answer"}
	svc := newTestChatService(repo, ai, nil)
	chatID := seedChat(t, repo)

	first, err := svc.Ask(context.Background(), &types.ChatRequest{ChatID: chatID, Message: "What is this?"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", first.Message)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, ai.chatCalls)

	second, err := svc.Ask(context.Background(), &types.ChatRequest{ChatID: chatID, Message: "What is this?"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", second.Message)
	assert.True(t, second.Cached)
	// The cached answer never reaches the AI layer again
	assert.Equal(t, 1, ai.chatCalls)

	// Both exchanges still land in chat history
	messages, err := repo.GetMessages(context.Background(), chatID, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 4)
}

func TestAskFingerprintIgnoresCaseAndSpace(t *testing.T) {
	repo := newMemoryChatRepo()
	ai := &fakeAI{answer: "ok"}
	svc := newTestChatService(repo, ai, nil)
	chatID := seedChat(t, repo)

	_, err := svc.Ask(context.Background(), &types.ChatRequest{ChatID: chatID, Message: "Hello World"})
	require.NoError(t, err)
	answer, err := svc.Ask(context.Background(), &types.ChatRequest{ChatID: chatID, Message: "  hello world  "})
	require.NoError(t, err)

	assert.True(t, answer.Cached)
	assert.Equal(t, 1, ai.chatCalls)
}

func TestAskUnknownChat(t *testing.T) {
	svc := newTestChatService(newMemoryChatRepo(), &fakeAI{answer: "x"}, nil)

	_, err := svc.Ask(context.Background(), &types.ChatRequest{ChatID: "missing", Message: "hi"})
	assert.Error(t, err)
}

func TestAskEmptyMessage(t *testing.T) {
	svc := newTestChatService(newMemoryChatRepo(), &fakeAI{answer: "x"}, nil)

	_, err := svc.Ask(context.Background(), &types.ChatRequest{ChatID: "a", Message: "   "})
	assert.Error(t, err)
}

func TestAskUsesLatestFileContext(t *testing.T) {
	repo := newMemoryChatRepo()
	ai := &fakeAI{answer: "from the doc"}
	svc := newTestChatService(repo, ai, nil)
	chatID := seedChat(t, repo)

	require.NoError(t, repo.AddFileData(context.Background(), &types.FileData{
		ChatID:   chatID,
		Filename: "report.pdf",
		Content: types.EnhancedContent{
			MarkdownContent: "# Quarterly numbers",
		},
	}))

	_, err := svc.Ask(context.Background(), &types.ChatRequest{ChatID: chatID, Message: "What are the numbers?"})
	require.NoError(t, err)

	assert.Contains(t, ai.lastContext, "report.pdf")
	assert.Contains(t, ai.lastContext, "# Quarterly numbers")
}

func TestAskStoredContentFallsBackToJSON(t *testing.T) {
	repo := newMemoryChatRepo()
	ai := &fakeAI{answer: "rows"}
	svc := newTestChatService(repo, ai, nil)
	chatID := seedChat(t, repo)

	require.NoError(t, repo.AddFileData(context.Background(), &types.FileData{
		ChatID:   chatID,
		Filename: "people.csv",
		Content:  []map[string]any{{"name": "A", "age": "1"}},
	}))

	_, err := svc.Ask(context.Background(), &types.ChatRequest{ChatID: chatID, Message: "who?"})
	require.NoError(t, err)

	assert.Contains(t, ai.lastContext, `"name":"A"`)
}

func TestAskNoInfoTriggersWebSearch(t *testing.T) {
	repo := newMemoryChatRepo()
	ai := &fakeAI{answer: "I do not have enough information to answer that."}
	searcher := &fakeSearcher{results: []SearchResult{{Title: "T", Link: "L", Snippet: "S"}}}
	svc := newTestChatService(repo, ai, searcher)
	chatID := seedChat(t, repo)

	answer, err := svc.Ask(context.Background(), &types.ChatRequest{ChatID: chatID, Message: "obscure question"})
	require.NoError(t, err)

	assert.Equal(t, 1, searcher.calls)
	// Second AI call carries the search results as context
	assert.Equal(t, 2, ai.chatCalls)
	assert.Contains(t, ai.lastContext, "Web search results")
	assert.Equal(t, ai.answer, answer.Message)
}

func TestAskSearchFailureGivesFixedMessage(t *testing.T) {
	repo := newMemoryChatRepo()
	ai := &fakeAI{answerErr: errors.New("provider down")}
	searcher := &fakeSearcher{err: errors.New("no network")}
	svc := newTestChatService(repo, ai, searcher)
	chatID := seedChat(t, repo)

	answer, err := svc.Ask(context.Background(), &types.ChatRequest{ChatID: chatID, Message: "anything"})
	require.NoError(t, err)

	assert.Equal(t, searchUnavailableMessage, answer.Message)
}

func TestLacksInformation(t *testing.T) {
	assert.True(t, lacksInformation("Sorry, I do not have enough information."))
	assert.True(t, lacksInformation("I DON'T HAVE ENOUGH INFORMATION here"))
	assert.False(t, lacksInformation("The total is 42."))
}
