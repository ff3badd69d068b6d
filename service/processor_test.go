package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/docqa-be/cache"
	"github.com/tieubaoca/docqa-be/types"
)

// fakeConverter fails the first failures calls, then succeeds. It records
// every call so tests can assert on attempt bounds and options.
type fakeConverter struct {
	calls    int
	failures int
	markdown string
	opts     []types.ConvertOptions
}

func (f *fakeConverter) Convert(ctx context.Context, filePath string, opts types.ConvertOptions) (*types.ConvertedDocument, error) {
	f.calls++
	f.opts = append(f.opts, opts)
	if f.calls <= f.failures {
		return nil, errors.New("conversion failed")
	}
	return &types.ConvertedDocument{Markdown: f.markdown, PageCount: 1}, nil
}

type fakeCapacity struct{ capacity bool }

func (f *fakeCapacity) HasCapacity() bool { return f.capacity }

// fakePDFText stands in for the lightweight PDF text extractor.
type fakePDFText struct {
	text string
	err  error
}

func (f *fakePDFText) ExtractPDFText(content []byte) (string, int, error) {
	return f.text, 1, f.err
}

func newTestProcessor(converter DocumentConverter, pdfFallback PDFTextExtractor) *FileProcessor {
	var enhanced *EnhancedExtractor
	if converter != nil {
		enhanced = NewEnhancedExtractor(
			converter,
			&fakeCapacity{capacity: true},
			cache.NewPartialResultCache(cache.NewInMemoryCache()),
			0,
		)
	}
	return NewFileProcessor(NewFormatRouter(), enhanced, NewBasicExtractor(), pdfFallback)
}

func TestProcessFileUnsupportedNeverReachesEngine(t *testing.T) {
	converter := &fakeConverter{markdown: "# doc"}
	processor := newTestProcessor(converter, nil)

	result := processor.ProcessFile(context.Background(), "malware.exe", []byte("x"), false, nil)

	assert.False(t, result.Success)
	assert.Equal(t, "Unsupported file type: exe", result.ErrorMessage)
	assert.Zero(t, converter.calls)
}

func TestProcessFileCSV(t *testing.T) {
	processor := newTestProcessor(nil, nil)

	result := processor.ProcessFile(context.Background(), "people.csv", []byte("name,age\nA,1\nB,2\nC,3"), false, nil)

	require.True(t, result.Success)
	assert.False(t, result.EnhancedProcessing)
	records, ok := result.Content.([]map[string]any)
	require.True(t, ok)
	require.Len(t, records, 3)
	assert.Equal(t, "A", records[0]["name"])
	assert.Equal(t, "3", records[2]["age"])
	assert.Equal(t, 3, result.Metadata["rows"])
}

func TestProcessFileMalformedCSV(t *testing.T) {
	processor := newTestProcessor(nil, nil)

	result := processor.ProcessFile(context.Background(), "bad.csv", []byte("a,b\n\"unterminated"), false, nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "Invalid CSV file")
}

func TestProcessFilePDFForcesOCR(t *testing.T) {
	converter := &fakeConverter{markdown: "# extracted"}
	processor := newTestProcessor(converter, nil)

	result := processor.ProcessFile(context.Background(), "doc.pdf", []byte("%PDF"), false, nil)

	require.True(t, result.Success)
	assert.True(t, result.EnhancedProcessing)
	require.Equal(t, 1, converter.calls)
	assert.True(t, converter.opts[0].ForceFullPageOCR)
}

func TestProcessFileRetriesEnhancedOnce(t *testing.T) {
	converter := &fakeConverter{failures: 1, markdown: "# recovered"}
	processor := newTestProcessor(converter, nil)

	result := processor.ProcessFile(context.Background(), "slides.pptx", []byte("data"), false, nil)

	require.True(t, result.Success)
	assert.Equal(t, 2, converter.calls)
	// The retry escalates to full page OCR
	assert.True(t, converter.opts[1].ForceFullPageOCR)
}

func TestProcessFilePDFFallbackAfterEnhancedFailure(t *testing.T) {
	converter := &fakeConverter{failures: 10}
	fallback := &fakePDFText{text: "embedded text layer"}
	processor := newTestProcessor(converter, fallback)

	result := processor.ProcessFile(context.Background(), "doc.pdf", []byte("%PDF"), false, nil)

	require.True(t, result.Success)
	assert.Equal(t, 2, converter.calls)
	content, ok := result.Content.(types.BasicPDFContent)
	require.True(t, ok)
	assert.Equal(t, "embedded text layer", content.TextContent)
	assert.Equal(t, "pdf_text_fallback", content.ExtractionMethod)
	assert.False(t, result.EnhancedProcessing)
}

func TestProcessFileScannedPDFGetsOneSecondChance(t *testing.T) {
	// Enhanced fails twice, fallback finds no text, the second chance
	// succeeds. Exactly three engine calls total.
	converter := &fakeConverter{failures: 2, markdown: "# ocr output"}
	fallback := &fakePDFText{text: "   "}
	processor := newTestProcessor(converter, fallback)

	result := processor.ProcessFile(context.Background(), "scan.pdf", []byte("%PDF"), false, nil)

	require.True(t, result.Success)
	assert.True(t, result.EnhancedProcessing)
	assert.Equal(t, 3, converter.calls)
	assert.Equal(t, []string{"eng"}, converter.opts[2].OCRLanguage)
}

func TestProcessFileScannedPDFSecondChanceFails(t *testing.T) {
	converter := &fakeConverter{failures: 10}
	fallback := &fakePDFText{text: ""}
	processor := newTestProcessor(converter, fallback)

	result := processor.ProcessFile(context.Background(), "scan.pdf", []byte("%PDF"), false, nil)

	require.True(t, result.Success)
	assert.Equal(t, 3, converter.calls)
	content, ok := result.Content.(types.BasicPDFContent)
	require.True(t, ok)
	assert.Contains(t, content.TextContent, types.ScannedPDFMarker)
	assert.NotEmpty(t, result.Metadata["enhanced_error"])
}

func TestProcessFilePDFBlobWhenEverythingFails(t *testing.T) {
	converter := &fakeConverter{failures: 10}
	fallback := &fakePDFText{err: errors.New("corrupt xref")}
	processor := newTestProcessor(converter, fallback)

	result := processor.ProcessFile(context.Background(), "doc.pdf", []byte("%PDF"), false, nil)

	require.True(t, result.Success)
	_, ok := result.Content.(types.BlobContent)
	assert.True(t, ok)
}

func TestProcessFileImageOCRBoundedToTwoAttempts(t *testing.T) {
	converter := &fakeConverter{failures: 10}
	processor := newTestProcessor(converter, nil)

	result := processor.ProcessFile(context.Background(), "photo.png", []byte{0x89, 0x50}, false, nil)

	require.True(t, result.Success)
	// Both attempts happen in the enhanced branch; the basic image path
	// must not add a third
	assert.Equal(t, 2, converter.calls)
	_, ok := result.Content.(types.ImageContent)
	assert.True(t, ok)
}

func TestProcessFileGifSkipsEnhancedWithoutForce(t *testing.T) {
	// gif is not enhanced-eligible, so without forceOCR the engine is
	// tried once from the basic image path only
	converter := &fakeConverter{markdown: "# gif text"}
	processor := newTestProcessor(converter, nil)

	result := processor.ProcessFile(context.Background(), "anim.gif", []byte("GIF89a"), false, nil)

	require.True(t, result.Success)
	assert.Equal(t, 1, converter.calls)
	assert.True(t, result.EnhancedProcessing)
}

func TestProcessFileNoCapacityFailsWithoutDowngrade(t *testing.T) {
	converter := &fakeConverter{markdown: "# never"}
	enhanced := NewEnhancedExtractor(
		converter,
		&fakeCapacity{capacity: false},
		cache.NewPartialResultCache(cache.NewInMemoryCache()),
		0,
	)
	fallback := &fakePDFText{text: "plain text"}
	processor := NewFileProcessor(NewFormatRouter(), enhanced, NewBasicExtractor(), fallback)

	result := processor.ProcessFile(context.Background(), "doc.pdf", []byte("%PDF"), false, nil)

	// Resource failure never degrades to basic output; the caller retries
	// when load drops
	assert.False(t, result.Success)
	assert.Equal(t, resourceFailureMessage, result.ErrorMessage)
	assert.Zero(t, converter.calls)
}

func TestProcessFilePartialCacheHitSkipsResourceGate(t *testing.T) {
	converter := &fakeConverter{markdown: "# cached"}
	capacity := &fakeCapacity{capacity: true}
	enhanced := NewEnhancedExtractor(
		converter,
		capacity,
		cache.NewPartialResultCache(cache.NewInMemoryCache()),
		0,
	)
	processor := NewFileProcessor(NewFormatRouter(), enhanced, NewBasicExtractor(), nil)

	first := processor.ProcessFile(context.Background(), "doc.pdf", []byte("%PDF"), false, nil)
	require.True(t, first.Success)

	// The cached result stays servable even once the system is loaded
	capacity.capacity = false
	second := processor.ProcessFile(context.Background(), "doc.pdf", []byte("%PDF"), false, nil)
	require.True(t, second.Success)
	assert.Equal(t, 1, converter.calls)
}

func TestProcessFilePartialCacheShortCircuits(t *testing.T) {
	converter := &fakeConverter{markdown: "# cached"}
	processor := newTestProcessor(converter, nil)

	first := processor.ProcessFile(context.Background(), "doc.pdf", []byte("%PDF"), false, nil)
	second := processor.ProcessFile(context.Background(), "doc.pdf", []byte("%PDF"), false, nil)

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, 1, converter.calls)
	assert.Equal(t, first.Content, second.Content)
}

func TestProcessFileTextAndJSON(t *testing.T) {
	processor := newTestProcessor(nil, nil)

	text := processor.ProcessFile(context.Background(), "notes.txt", []byte("hello\nworld"), false, nil)
	require.True(t, text.Success)
	content, ok := text.Content.(types.TextContent)
	require.True(t, ok)
	assert.Equal(t, 2, content.LineCount)

	parsed := processor.ProcessFile(context.Background(), "data.json", []byte(`{"k":"v"}`), false, nil)
	require.True(t, parsed.Success)
	obj, ok := parsed.Content.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "v", obj["k"])
}

func TestSanitizeOCRLanguages(t *testing.T) {
	assert.Equal(t, []string{"eng"}, SanitizeOCRLanguages(nil))
	assert.Equal(t, []string{"eng"}, SanitizeOCRLanguages([]string{"", "string", "  "}))
	assert.Equal(t, []string{"deu", "fra"}, SanitizeOCRLanguages([]string{" deu ", "string", "fra"}))
}
