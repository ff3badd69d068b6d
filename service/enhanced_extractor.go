package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tieubaoca/docqa-be/cache"
	"github.com/tieubaoca/docqa-be/types"
	"github.com/tieubaoca/docqa-be/utils"
)

// EnhancedExtractor runs the OCR and layout-aware extraction path. Every
// attempt is bounded by a hard wall-clock timeout and gated on system
// resources; successful results are memoized in the partial result cache
// keyed by file identity.
type EnhancedExtractor struct {
	converter DocumentConverter
	monitor   CapacityChecker
	partials  *cache.PartialResultCache
	timeout   time.Duration
}

func NewEnhancedExtractor(
	converter DocumentConverter,
	monitor CapacityChecker,
	partials *cache.PartialResultCache,
	timeout time.Duration,
) *EnhancedExtractor {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &EnhancedExtractor{
		converter: converter,
		monitor:   monitor,
		partials:  partials,
		timeout:   timeout,
	}
}

// Process performs one enhanced extraction attempt for the file content.
// Failures are captured in the returned ProcessingResult, never raised.
func (e *EnhancedExtractor) Process(ctx context.Context, filename string, content []byte, forceOCR bool, ocrLanguage []string) *types.ProcessingResult {
	start := time.Now()
	fileID := filename

	if cached, ok := e.partials.Get(fileID, types.ResultTypeOCR); ok {
		logrus.Infof("[CACHE] Partial result cache HIT for file_id=%s, type=%s", fileID, types.ResultTypeOCR)
		if result, ok := cached.(*types.ProcessingResult); ok {
			return result
		}
	}
	logrus.Infof("[CACHE] Partial result cache MISS for file_id=%s, type=%s", fileID, types.ResultTypeOCR)

	if !e.monitor.HasCapacity() {
		return failedResult(resourceFailureMessage, start, true)
	}

	tempPath, cleanup, err := utils.WriteTempFile(content, utils.FileExt(filename))
	if err != nil {
		return failedResult(fmt.Sprintf("Enhanced processing error: %v", err), start, true)
	}
	defer cleanup()

	if len(ocrLanguage) == 0 {
		ocrLanguage = []string{"eng"}
	}
	opts := types.ConvertOptions{
		DoOCR:            true,
		DoTableStructure: true,
		OCRLanguage:      ocrLanguage,
		ForceFullPageOCR: forceOCR,
	}

	doc, err := e.convertWithTimeout(ctx, tempPath, opts)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			logrus.Errorf("[OCR] Timeout processing %s", filename)
			return failedResult(fmt.Sprintf("Enhanced processing timed out after %s", e.timeout), start, true)
		case errors.Is(err, ErrMemoryPressure):
			logrus.Errorf("[OCR] Memory pressure processing %s", filename)
			runtime.GC()
			return failedResult("Memory error during enhanced processing", start, true)
		default:
			logrus.Errorf("[OCR] Error in enhanced processing of %s: %v", filename, err)
			return failedResult(fmt.Sprintf("Enhanced processing error: %v", err), start, true)
		}
	}

	markdown := doc.Markdown
	tokenEstimate := EstimateTokens(markdown)
	logrus.Infof("[OCR] Extracted %d characters from %s", len(markdown), filename)

	result := &types.ProcessingResult{
		Success: true,
		Content: types.EnhancedContent{
			MarkdownContent: markdown,
			StructuredData: types.StructuredData{
				Tables:    doc.Tables,
				Pictures:  doc.Pictures,
				Texts:     doc.Texts,
				KeyValues: doc.KeyValues,
			},
			ExtractionMethod: "ocr_pipeline",
			DocumentType:     utils.FileExt(filename),
			PageCount:        doc.PageCount,
			ContentLength:    len(markdown),
		},
		Metadata: map[string]any{
			"file_name":         filename,
			"file_size":         len(content),
			"format":            "enhanced",
			"processing_method": "ocr_pipeline",
			"token_estimate":    tokenEstimate,
			"ocr_enabled":       true,
			"ocr_language":      ocrLanguage,
			"force_ocr":         forceOCR,
			"extracted_chars":   len(markdown),
			"page_count":        doc.PageCount,
		},
		ProcessingTime:     time.Since(start).Seconds(),
		TokenEstimate:      tokenEstimate,
		EnhancedProcessing: true,
	}

	e.partials.Set(fileID, types.ResultTypeOCR, result, cache.DefaultPartialTTL)
	return result
}

// convertWithTimeout bounds the engine call. On timeout the in-flight
// call is abandoned best-effort via context cancellation; its goroutine
// drains into a buffered channel so nothing leaks.
func (e *EnhancedExtractor) convertWithTimeout(ctx context.Context, path string, opts types.ConvertOptions) (*types.ConvertedDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type converted struct {
		doc *types.ConvertedDocument
		err error
	}
	done := make(chan converted, 1)
	go func() {
		doc, err := e.converter.Convert(ctx, path, opts)
		done <- converted{doc, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.doc, res.err
	}
}

func failedResult(message string, start time.Time, enhanced bool) *types.ProcessingResult {
	return &types.ProcessingResult{
		Success:            false,
		ErrorMessage:       message,
		ProcessingTime:     time.Since(start).Seconds(),
		EnhancedProcessing: enhanced,
	}
}
