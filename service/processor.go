package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tieubaoca/docqa-be/types"
	"github.com/tieubaoca/docqa-be/utils"
)

// FileProcessor orchestrates the processing of one uploaded file: format
// routing, resource-gated enhanced extraction with one bounded retry, and
// format-specific basic fallbacks. A nil enhanced extractor means OCR is
// not configured in this deployment; routing then goes straight to the
// basic handlers.
type FileProcessor struct {
	router      *FormatRouter
	enhanced    *EnhancedExtractor
	basic       *BasicExtractor
	pdfFallback PDFTextExtractor
}

func NewFileProcessor(router *FormatRouter, enhanced *EnhancedExtractor, basic *BasicExtractor, pdfFallback PDFTextExtractor) *FileProcessor {
	if pdfFallback == nil {
		pdfFallback = basic
	}
	return &FileProcessor{
		router:      router,
		enhanced:    enhanced,
		basic:       basic,
		pdfFallback: pdfFallback,
	}
}

// SanitizeOCRLanguages drops blank entries and the "string" placeholder
// some clients send, defaulting to English when nothing usable remains.
func SanitizeOCRLanguages(languages []string) []string {
	var sanitized []string
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" || strings.EqualFold(lang, "string") {
			continue
		}
		sanitized = append(sanitized, lang)
	}
	if len(sanitized) == 0 {
		return []string{"eng"}
	}
	return sanitized
}

// ProcessFile runs the full processing chain for one file and always
// returns a ProcessingResult; failures never escape as errors.
func (p *FileProcessor) ProcessFile(ctx context.Context, filename string, content []byte, forceOCR bool, ocrLanguage []string) *types.ProcessingResult {
	start := time.Now()
	ext := utils.FileExt(filename)

	// Unsupported extensions fail before any engine sees bytes
	if !p.router.Supported(filename) {
		logrus.Warnf("[PROCESS] Unsupported file type: %s (%s)", ext, filename)
		return failedResult(fmt.Sprintf("Unsupported file type: %s", ext), start, false)
	}

	ocrLanguage = SanitizeOCRLanguages(ocrLanguage)

	// Scanned PDFs are common enough that basic extraction is assumed
	// insufficient by default
	if ext == "pdf" {
		forceOCR = true
	}

	triedEnhanced := p.enhancedEnabled() && (forceOCR || p.router.EnhancedEligible(filename))
	if triedEnhanced {
		result := p.enhanced.Process(ctx, filename, content, forceOCR, ocrLanguage)
		// Resource exhaustion fails the request outright: degraded output
		// under load would be indistinguishable from a good result, and the
		// caller can retry once load drops
		if isResourceFailure(result) {
			logrus.Warnf("[PROCESS] Rejecting %s: %s", filename, result.ErrorMessage)
			return result
		}
		if !result.Success {
			logrus.Warnf("[PROCESS] First enhanced attempt failed for %s: %s. Retrying...", filename, result.ErrorMessage)
			result = p.enhanced.Process(ctx, filename, content, true, ocrLanguage)
			if isResourceFailure(result) {
				return result
			}
		}
		if result.Success {
			logrus.Infof("[PROCESS] Enhanced processing succeeded for %s", filename)
			return result
		}
		logrus.Warnf("[PROCESS] Enhanced processing failed for %s after retry: %s", filename, result.ErrorMessage)

		if ext == "pdf" {
			if fallback := p.fallbackPDF(ctx, filename, content, start); fallback != nil {
				return fallback
			}
		}
		logrus.Infof("[PROCESS] Falling back to basic processing for %s", filename)
	}

	return p.processBasic(ctx, filename, ext, content, ocrLanguage, start, triedEnhanced)
}

func (p *FileProcessor) enhancedEnabled() bool {
	return p.enhanced != nil
}

// fallbackPDF runs the lightweight page-by-page extractor. When its
// output carries the scanned-document marker, the enhanced engine gets
// exactly one more attempt with alternate OCR settings before the basic
// result is accepted. Returns nil when the fallback itself fails, letting
// routing continue to the blob handler.
func (p *FileProcessor) fallbackPDF(ctx context.Context, filename string, content []byte, start time.Time) *types.ProcessingResult {
	logrus.Infof("[PROCESS] Using basic PDF fallback for %s", filename)
	text, pages, err := p.pdfFallback.ExtractPDFText(content)
	if err != nil {
		logrus.Errorf("[PROCESS] Fallback PDF processing failed for %s: %v", filename, err)
		return nil
	}

	if strings.TrimSpace(text) == "" {
		// No text layer at all: almost certainly a scanned PDF
		text = types.ScannedPDFMarker + ". Enhanced OCR processing is required for text extraction."
	}

	result := &types.ProcessingResult{
		Success: true,
		Content: types.BasicPDFContent{
			TextContent:      text,
			ExtractionMethod: "pdf_text_fallback",
			Note:             "Extracted using basic PDF processing. For scanned documents, OCR processing is recommended.",
		},
		Metadata: map[string]any{
			"file_name":         filename,
			"file_size":         len(content),
			"format":            "pdf",
			"processing_method": "pdf_text_fallback",
			"pages":             pages,
			"extracted_chars":   len(text),
		},
		ProcessingTime: time.Since(start).Seconds(),
		TokenEstimate:  EstimateTokens(text),
	}

	if strings.HasPrefix(strings.TrimSpace(text), types.ScannedPDFMarker) && p.enhancedEnabled() {
		logrus.Warnf("[PROCESS] Fallback detected scanned PDF for %s. Re-attempting OCR with alternate settings...", filename)
		secondChance := p.enhanced.Process(ctx, filename, content, true, []string{"eng"})
		if secondChance.Success {
			logrus.Infof("[PROCESS] Second-chance OCR succeeded for %s", filename)
			return secondChance
		}
		logrus.Errorf("[PROCESS] Second-chance OCR failed for %s: %s", filename, secondChance.ErrorMessage)
		result.Metadata["enhanced_error"] = secondChance.ErrorMessage
	}
	return result
}

func (p *FileProcessor) processBasic(ctx context.Context, filename, ext string, content []byte, ocrLanguage []string, start time.Time, triedEnhanced bool) *types.ProcessingResult {
	logrus.Infof("[PROCESS] Using basic processing for %s (type: %s)", filename, ext)

	switch {
	case ext == "json":
		return p.basic.ProcessJSON(filename, content, start)
	case ext == "csv":
		return p.basic.ProcessCSV(filename, content, start)
	case ext == "xlsx" || ext == "xls":
		return p.basic.ProcessExcel(filename, content, start)
	case imageFormats[ext]:
		// Images may still carry text worth OCRing before settling for
		// a base64 passthrough
		if p.enhancedEnabled() && !triedEnhanced {
			if result := p.enhanced.Process(ctx, filename, content, true, ocrLanguage); result.Success {
				return result
			}
			logrus.Warnf("[PROCESS] OCR failed for image %s, storing as base64", filename)
		}
		return p.basic.ProcessImage(filename, content, start)
	case textFormats[ext]:
		return p.basic.ProcessText(filename, content, start)
	case documentBlobFormats[ext]:
		return p.basic.ProcessDocumentBlob(filename, content, start)
	default:
		return failedResult(fmt.Sprintf("Unsupported file type: %s", ext), start, false)
	}
}
