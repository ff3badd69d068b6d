package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tieubaoca/docqa-be/cache"
	"github.com/tieubaoca/docqa-be/repository"
	"github.com/tieubaoca/docqa-be/types"
	"github.com/tieubaoca/docqa-be/utils"
)

const previewChars = 500
const previewRows = 5

// FileService is the upload intake: it routes a file through processing,
// attaches the extracted content to a chat, and invalidates cached answers
// that may now be stale.
type FileService struct {
	repo      repository.ChatRepo
	processor *FileProcessor
	queries   *cache.QueryCache
	partials  *cache.PartialResultCache
}

func NewFileService(repo repository.ChatRepo, processor *FileProcessor, queries *cache.QueryCache, partials *cache.PartialResultCache) *FileService {
	return &FileService{
		repo:      repo,
		processor: processor,
		queries:   queries,
		partials:  partials,
	}
}

// Upload processes one file and attaches the result to a chat, creating
// the chat when none is given. Processing failures come back in the
// response, not as errors; errors mean the chat or storage layer failed.
func (s *FileService) Upload(ctx context.Context, req *types.UploadFileRequest) (*types.UploadFileResponse, error) {
	filename := utils.SanitizeFilename(req.Filename)

	chatID := req.ChatID
	if chatID == "" {
		chat, err := s.repo.CreateChat(ctx, fmt.Sprintf("Chat about %s", filename))
		if err != nil {
			return nil, fmt.Errorf("failed to create chat: %w", err)
		}
		chatID = chat.ID
	} else if _, err := s.repo.GetChat(ctx, chatID); err != nil {
		return nil, fmt.Errorf("chat not found: %s", chatID)
	}

	// Invalidate before processing and storing, never after: a re-upload
	// may carry different bytes under the same name, and answers cached
	// against the old context are stale either way
	s.OnFileAttached(chatID, filename)

	result := s.processor.ProcessFile(ctx, filename, req.Content, req.ForceOCR, req.OCRLanguage)
	if !result.Success {
		return &types.UploadFileResponse{
			Success:  false,
			ChatID:   chatID,
			Filename: filename,
			Analysis: map[string]any{"error": result.ErrorMessage},
		}, nil
	}

	fileData := &types.FileData{
		ChatID:   chatID,
		Filename: filename,
		FileType: utils.FileExt(filename),
		Content:  result.Content,
	}
	if err := s.repo.AddFileData(ctx, fileData); err != nil {
		return nil, fmt.Errorf("failed to store file data: %w", err)
	}
	systemNote := fmt.Sprintf("File '%s' uploaded and processed.", filename)
	if err := s.repo.AddMessage(ctx, chatID, "system", systemNote); err != nil {
		return nil, fmt.Errorf("failed to record upload message: %w", err)
	}

	return &types.UploadFileResponse{
		Success:  true,
		ChatID:   chatID,
		Filename: filename,
		Analysis: map[string]any{
			"format":              result.Metadata["format"],
			"processing_method":   result.Metadata["processing_method"],
			"token_estimate":      result.TokenEstimate,
			"processing_time":     result.ProcessingTime,
			"enhanced_processing": result.EnhancedProcessing,
		},
		Preview:            buildPreview(result.Content),
		Content:            result.Content,
		ProcessingMetadata: result.Metadata,
	}, nil
}

// OnFileAttached purges cache entries made stale by new file content in
// a conversation: every cached answer for the chat and every partial
// result for the file.
func (s *FileService) OnFileAttached(chatID, fileID string) {
	if dropped := s.queries.InvalidateChat(chatID); dropped > 0 {
		logrus.Infof("[UPLOAD] Invalidated %d cached answers for chat %s", dropped, chatID)
	}
	s.partials.InvalidateFile(fileID)
}

// buildPreview gives the client a small sample of what was extracted:
// the first rows of tabular data, or the first characters of text.
func buildPreview(content any) any {
	switch v := content.(type) {
	case []map[string]any:
		if len(v) > previewRows {
			return v[:previewRows]
		}
		return v
	case types.EnhancedContent:
		return truncateForPreview(v.MarkdownContent)
	case types.TextContent:
		return truncateForPreview(v.TextContent)
	case types.BasicPDFContent:
		return truncateForPreview(v.TextContent)
	default:
		return nil
	}
}

func truncateForPreview(text string) string {
	if len(text) > previewChars {
		return text[:previewChars] + "..."
	}
	return text
}
