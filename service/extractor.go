package service

import (
	"context"
	"errors"

	"github.com/tieubaoca/docqa-be/types"
)

// resourceFailureMessage marks results that failed the capacity gate
// before any extraction ran. These never downgrade to basic processing;
// the request is retryable once system load drops.
const resourceFailureMessage = "Insufficient system resources for enhanced processing"

func isResourceFailure(r *types.ProcessingResult) bool {
	return !r.Success && r.ErrorMessage == resourceFailureMessage
}

// ErrMemoryPressure is returned by converters that abort under memory
// pressure. The extractor forces a garbage collection pass and reports
// the attempt as failed without retrying.
var ErrMemoryPressure = errors.New("memory pressure during conversion")

// DocumentConverter is the enhanced engine boundary: OCR plus layout and
// table-structure aware conversion of a document on disk. Implementations
// may fail on corrupt input, unsupported sub-formats or resource
// exhaustion; any such error counts as a failed enhanced attempt.
type DocumentConverter interface {
	Convert(ctx context.Context, filePath string, opts types.ConvertOptions) (*types.ConvertedDocument, error)
}

// CapacityChecker gates enhanced processing on current system load.
type CapacityChecker interface {
	HasCapacity() bool
}

// PDFTextExtractor is the lightweight page-by-page text extraction used
// as the fallback when the enhanced engine fails on a PDF.
type PDFTextExtractor interface {
	ExtractPDFText(content []byte) (text string, pages int, err error)
}

// EstimateTokens is a rough character-based heuristic, used only for
// budgeting, never billing.
func EstimateTokens(text string) int {
	return len(text) / 4
}
