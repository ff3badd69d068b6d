package types

// Format classes produced by the format router.
const (
	FormatTabular     = "tabular"
	FormatEnhanced    = "enhanced"
	FormatText        = "text"
	FormatUnsupported = "unsupported"
)

// Result types stored in the partial result cache.
const (
	ResultTypeOCR = "ocr"
)

// ScannedPDFMarker prefixes the fallback text when basic PDF extraction
// finds no extractable text. The processor uses it to trigger one more
// OCR attempt with alternate settings.
const ScannedPDFMarker = "This appears to be a scanned PDF"

// ProcessingResult is the outcome of one file processing attempt.
// It is immutable after construction; cached copies are never mutated.
type ProcessingResult struct {
	Success            bool           `json:"success"`
	Content            any            `json:"content,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	ErrorMessage       string         `json:"error_message,omitempty"`
	ProcessingTime     float64        `json:"processing_time"`
	TokenEstimate      int            `json:"token_estimate"`
	EnhancedProcessing bool           `json:"enhanced_processing"`
}

// ConvertOptions configures one enhanced conversion attempt.
type ConvertOptions struct {
	DoOCR            bool     `json:"do_ocr"`
	DoTableStructure bool     `json:"do_table_structure"`
	OCRLanguage      []string `json:"ocr_language"`
	ForceFullPageOCR bool     `json:"force_full_page_ocr"`
}

// ConvertedDocument is what the enhanced engine returns for one document.
type ConvertedDocument struct {
	Markdown  string          `json:"markdown"`
	Tables    []DocumentTable `json:"tables,omitempty"`
	Pictures  []DocumentItem  `json:"pictures,omitempty"`
	Texts     []DocumentItem  `json:"texts,omitempty"`
	KeyValues []KeyValueItem  `json:"key_value_items,omitempty"`
	PageCount int             `json:"page_count"`
}

// DocumentTable is a table extracted by the enhanced engine.
type DocumentTable struct {
	TableID int        `json:"table_id"`
	Caption string     `json:"caption,omitempty"`
	PageNum int        `json:"page_no,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// DocumentItem is a picture or text block with its page location.
type DocumentItem struct {
	ID      int    `json:"id"`
	Text    string `json:"text,omitempty"`
	Label   string `json:"label,omitempty"`
	PageNum int    `json:"page_no,omitempty"`
}

// KeyValueItem is a key-value pair detected in the document.
type KeyValueItem struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	PageNum int    `json:"page_no,omitempty"`
}

// StructuredData groups the structured accessors of a converted document.
type StructuredData struct {
	Tables    []DocumentTable `json:"tables,omitempty"`
	Pictures  []DocumentItem  `json:"pictures,omitempty"`
	Texts     []DocumentItem  `json:"texts,omitempty"`
	KeyValues []KeyValueItem  `json:"key_value_items,omitempty"`
}

// EnhancedContent is the content payload of a successful enhanced pass.
type EnhancedContent struct {
	MarkdownContent  string         `json:"markdown_content"`
	StructuredData   StructuredData `json:"structured_data"`
	ExtractionMethod string         `json:"extraction_method"`
	DocumentType     string         `json:"document_type"`
	PageCount        int            `json:"page_count"`
	ContentLength    int            `json:"content_length"`
}

// TextContent is the payload for plain text formats.
type TextContent struct {
	TextContent    string `json:"text_content"`
	FileType       string `json:"file_type"`
	FileSize       int    `json:"file_size"`
	CharacterCount int    `json:"character_count"`
	LineCount      int    `json:"line_count"`
}

// BasicPDFContent is the payload of the lightweight PDF fallback.
type BasicPDFContent struct {
	TextContent      string `json:"text_content"`
	ExtractionMethod string `json:"extraction_method"`
	Note             string `json:"note,omitempty"`
}

// ImageContent stores an image as base64 when OCR is unavailable or failed.
type ImageContent struct {
	ImageData string `json:"image_data"`
	ImageType string `json:"image_type"`
	FileSize  int    `json:"file_size"`
	Note      string `json:"note,omitempty"`
}

// BlobContent stores an opaque document as base64 with an advisory note.
type BlobContent struct {
	DocumentData string `json:"document_data"`
	DocumentType string `json:"document_type"`
	FileSize     int    `json:"file_size"`
	Note         string `json:"note,omitempty"`
}
