package service

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
	"github.com/tieubaoca/docqa-be/types"
	"github.com/tieubaoca/docqa-be/utils"
	"github.com/xuri/excelize/v2"
)

// BasicExtractor implements the lightweight, format-specific extraction
// path: no OCR, no layout awareness. Malformed input surfaces as a failed
// ProcessingResult with the parser's error as the reason.
type BasicExtractor struct{}

func NewBasicExtractor() *BasicExtractor {
	return &BasicExtractor{}
}

// ProcessCSV parses CSV bytes into row-oriented records keyed by header.
func (b *BasicExtractor) ProcessCSV(filename string, content []byte, start time.Time) *types.ProcessingResult {
	reader := csv.NewReader(bytes.NewReader(content))
	rows, err := reader.ReadAll()
	if err != nil {
		logrus.Errorf("[PROCESS] Error processing CSV %s: %v", filename, err)
		return failedResult(fmt.Sprintf("Invalid CSV file: %v", err), start, false)
	}
	if len(rows) == 0 {
		return failedResult("Invalid CSV file: empty input", start, false)
	}

	header := rows[0]
	records := rowsToRecords(header, rows[1:])
	return b.tabularResult(filename, "csv", content, header, records, start)
}

// ProcessExcel parses the first sheet of an xlsx/xls workbook into
// row-oriented records.
func (b *BasicExtractor) ProcessExcel(filename string, content []byte, start time.Time) *types.ProcessingResult {
	workbook, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		logrus.Errorf("[PROCESS] Error processing Excel %s: %v", filename, err)
		return failedResult(fmt.Sprintf("Invalid Excel file: %v", err), start, false)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return failedResult("Invalid Excel file: no sheets", start, false)
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return failedResult(fmt.Sprintf("Invalid Excel file: %v", err), start, false)
	}
	if len(rows) == 0 {
		return failedResult("Invalid Excel file: empty sheet", start, false)
	}

	header := rows[0]
	records := rowsToRecords(header, rows[1:])
	return b.tabularResult(filename, "excel", content, header, records, start)
}

// ProcessJSON parses JSON bytes into a generic structure.
func (b *BasicExtractor) ProcessJSON(filename string, content []byte, start time.Time) *types.ProcessingResult {
	var parsed any
	if err := json.Unmarshal(content, &parsed); err != nil {
		logrus.Errorf("[PROCESS] Error decoding JSON %s: %v", filename, err)
		return failedResult(fmt.Sprintf("Invalid JSON file: %v", err), start, false)
	}
	return &types.ProcessingResult{
		Success: true,
		Content: parsed,
		Metadata: map[string]any{
			"file_name":         filename,
			"file_size":         len(content),
			"format":            "json",
			"processing_method": "basic",
		},
		ProcessingTime: time.Since(start).Seconds(),
		TokenEstimate:  EstimateTokens(string(content)),
	}
}

// ProcessText decodes text-based formats and reports basic shape.
func (b *BasicExtractor) ProcessText(filename string, content []byte, start time.Time) *types.ProcessingResult {
	text := string(content)
	ext := utils.FileExt(filename)

	// HTML gets its markup stripped so the Q&A layer sees prose
	if ext == "html" || ext == "htm" {
		if stripped, err := extractHTMLText(content); err == nil {
			text = stripped
		} else {
			logrus.Warnf("[PROCESS] Failed to parse HTML %s, keeping raw text: %v", filename, err)
		}
	}

	lineCount := len(strings.Split(text, "\n"))
	return &types.ProcessingResult{
		Success: true,
		Content: types.TextContent{
			TextContent:    text,
			FileType:       ext,
			FileSize:       len(content),
			CharacterCount: len(text),
			LineCount:      lineCount,
		},
		Metadata: map[string]any{
			"file_name":         filename,
			"file_size":         len(content),
			"format":            "text",
			"processing_method": "basic",
			"character_count":   len(text),
			"line_count":        lineCount,
		},
		ProcessingTime: time.Since(start).Seconds(),
		TokenEstimate:  EstimateTokens(text),
	}
}

// ProcessImage stores the image as base64 when OCR is unavailable or failed.
func (b *BasicExtractor) ProcessImage(filename string, content []byte, start time.Time) *types.ProcessingResult {
	ext := utils.FileExt(filename)
	return &types.ProcessingResult{
		Success: true,
		Content: types.ImageContent{
			ImageData: base64.StdEncoding.EncodeToString(content),
			ImageType: ext,
			FileSize:  len(content),
			Note:      "Image file uploaded. OCR processing unavailable or failed.",
		},
		Metadata: map[string]any{
			"file_name":         filename,
			"file_size":         len(content),
			"format":            "image",
			"image_type":        ext,
			"processing_method": "basic",
			"ocr_available":     false,
		},
		ProcessingTime: time.Since(start).Seconds(),
	}
}

// ProcessDocumentBlob stores an opaque office document as base64 with an
// advisory note that enhanced processing would do better.
func (b *BasicExtractor) ProcessDocumentBlob(filename string, content []byte, start time.Time) *types.ProcessingResult {
	ext := utils.FileExt(filename)
	return &types.ProcessingResult{
		Success: true,
		Content: types.BlobContent{
			DocumentData: base64.StdEncoding.EncodeToString(content),
			DocumentType: ext,
			FileSize:     len(content),
			Note:         fmt.Sprintf("%s document uploaded. Enhanced processing is recommended for better text extraction.", strings.ToUpper(ext)),
		},
		Metadata: map[string]any{
			"file_name":                       filename,
			"file_size":                       len(content),
			"format":                          "document",
			"document_type":                   ext,
			"processing_method":               "basic",
			"enhanced_processing_recommended": true,
		},
		ProcessingTime: time.Since(start).Seconds(),
	}
}

// ExtractPDFText pulls the embedded text layer page by page. Implements
// PDFTextExtractor.
func (b *BasicExtractor) ExtractPDFText(content []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}

	totalPages := reader.NumPage()
	var builder strings.Builder
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logrus.Warnf("[PROCESS] Failed to extract text from PDF page %d: %v", pageNum, err)
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), totalPages, nil
}

func (b *BasicExtractor) tabularResult(filename, format string, content []byte, header []string, records []map[string]any, start time.Time) *types.ProcessingResult {
	return &types.ProcessingResult{
		Success: true,
		Content: records,
		Metadata: map[string]any{
			"file_name":         filename,
			"file_size":         len(content),
			"format":            format,
			"processing_method": "basic",
			"rows":              len(records),
			"columns":           header,
		},
		ProcessingTime: time.Since(start).Seconds(),
		TokenEstimate:  EstimateTokens(string(content)),
	}
}

// rowsToRecords zips data rows with the header row. Short rows leave
// trailing columns absent; extra cells are dropped.
func rowsToRecords(header []string, rows [][]string) []map[string]any {
	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]any, len(header))
		for i, column := range header {
			if i < len(row) {
				record[column] = row[i]
			}
		}
		records = append(records, record)
	}
	return records
}

func extractHTMLText(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Text()), nil
}
