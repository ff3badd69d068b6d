package service

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tieubaoca/docqa-be/types"
	"github.com/tieubaoca/docqa-be/utils"
)

var (
	pagesRe    = regexp.MustCompile(`Pages:\s+(\d+)`)
	keyValueRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 _/-]{1,40}):\s+(\S.*)$`)
)

// CLIConverter drives the poppler and tesseract command line tools to
// perform OCR and structure-aware extraction. It implements
// DocumentConverter for PDFs and raster images; other formats are
// rejected so the orchestrator falls back to basic handlers.
type CLIConverter struct{}

func NewCLIConverter() *CLIConverter {
	return &CLIConverter{}
}

func (c *CLIConverter) Convert(ctx context.Context, filePath string, opts types.ConvertOptions) (*types.ConvertedDocument, error) {
	ext := utils.FileExt(filePath)
	switch {
	case ext == "pdf":
		return c.convertPDF(ctx, filePath, opts)
	case imageFormats[ext]:
		return c.convertImage(ctx, filePath, opts)
	default:
		return nil, fmt.Errorf("unsupported format for OCR conversion: %s", ext)
	}
}

func (c *CLIConverter) convertPDF(ctx context.Context, filePath string, opts types.ConvertOptions) (*types.ConvertedDocument, error) {
	totalPages, err := getNumPages(ctx, filePath)
	if err != nil {
		return nil, err
	}
	logrus.Infof("[OCR] Converting %s (%d pages)", filepath.Base(filePath), totalPages)

	doc := &types.ConvertedDocument{PageCount: totalPages}
	var sections []string

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		text, err := c.extractPage(ctx, filePath, pageNum, opts)
		if err != nil {
			logrus.Warnf("[OCR] Failed to extract text from page %d: %v", pageNum, err)
			continue // Skip failed pages instead of returning error
		}
		text = cleanExtractedText(text)
		if text == "" {
			continue
		}

		sections = append(sections, text)
		doc.Texts = append(doc.Texts, types.DocumentItem{
			ID:      len(doc.Texts),
			Text:    text,
			Label:   "text",
			PageNum: pageNum,
		})
		c.structurePage(doc, text, pageNum, opts)
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("no text extracted from %s", filepath.Base(filePath))
	}
	doc.Markdown = strings.Join(sections, "\n\n")
	return doc, nil
}

// extractPage tries the embedded text layer first and falls back to OCR.
// With full-page OCR forced, the text layer is skipped entirely.
func (c *CLIConverter) extractPage(ctx context.Context, filePath string, pageNum int, opts types.ConvertOptions) (string, error) {
	if !opts.ForceFullPageOCR {
		text, err := extractTextWithPdftotext(ctx, filePath, pageNum)
		if err == nil && text != "" {
			return text, nil
		}
	}
	if !opts.DoOCR {
		return "", fmt.Errorf("no text layer on page %d and OCR disabled", pageNum)
	}
	return c.ocrPage(ctx, filePath, pageNum, opts.OCRLanguage)
}

// ocrPage renders one page to PNG and runs tesseract over it.
func (c *CLIConverter) ocrPage(ctx context.Context, pdfPath string, pageNum int, languages []string) (string, error) {
	tempDir, err := os.MkdirTemp("", "ocr-page-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	convertCmd := exec.CommandContext(ctx, "pdftoppm",
		"-f", strconv.Itoa(pageNum),
		"-l", strconv.Itoa(pageNum),
		"-r", "300",
		"-png", pdfPath, filepath.Join(tempDir, "page"))
	if err := convertCmd.Run(); err != nil {
		return "", fmt.Errorf("error converting page %d to image: %w", pageNum, err)
	}

	matches, err := filepath.Glob(filepath.Join(tempDir, "page-*.png"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("failed to read rendered page image: %w", err)
	}
	return runTesseract(ctx, matches[0], languages)
}

func (c *CLIConverter) convertImage(ctx context.Context, imagePath string, opts types.ConvertOptions) (*types.ConvertedDocument, error) {
	text, err := runTesseract(ctx, imagePath, opts.OCRLanguage)
	if err != nil {
		return nil, err
	}
	text = cleanExtractedText(text)
	if text == "" {
		return nil, fmt.Errorf("no text recognized in %s", filepath.Base(imagePath))
	}

	doc := &types.ConvertedDocument{
		Markdown:  text,
		PageCount: 1,
		Texts: []types.DocumentItem{
			{ID: 0, Text: text, Label: "text", PageNum: 1},
		},
	}
	c.structurePage(doc, text, 1, opts)
	return doc, nil
}

// structurePage pulls tables and key-value pairs out of raw page text.
func (c *CLIConverter) structurePage(doc *types.ConvertedDocument, text string, pageNum int, opts types.ConvertOptions) {
	lines := strings.Split(text, "\n")
	var tableRows [][]string

	flushTable := func() {
		// A single delimited line is not a table
		if len(tableRows) >= 2 {
			doc.Tables = append(doc.Tables, types.DocumentTable{
				TableID: len(doc.Tables),
				PageNum: pageNum,
				Rows:    tableRows,
			})
		}
		tableRows = nil
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if opts.DoTableStructure {
				flushTable()
			}
			continue
		}
		if opts.DoTableStructure {
			if cols := splitTableRow(line); len(cols) >= 2 {
				tableRows = append(tableRows, cols)
				continue
			}
			flushTable()
		}
		if m := keyValueRe.FindStringSubmatch(line); m != nil {
			doc.KeyValues = append(doc.KeyValues, types.KeyValueItem{
				Key:     strings.TrimSpace(m[1]),
				Value:   strings.TrimSpace(m[2]),
				PageNum: pageNum,
			})
		}
	}
	if opts.DoTableStructure {
		flushTable()
	}
}

// splitTableRow splits a line on tabs or runs of 2+ spaces, the column
// separators pdftotext and tesseract emit for tabular layouts.
func splitTableRow(line string) []string {
	var cols []string
	for _, col := range regexp.MustCompile(`\t|\s{2,}`).Split(line, -1) {
		if col = strings.TrimSpace(col); col != "" {
			cols = append(cols, col)
		}
	}
	return cols
}

func extractTextWithPdftotext(ctx context.Context, filePath string, pageNum int) (string, error) {
	cmd := exec.CommandContext(ctx, "pdftotext",
		"-f", strconv.Itoa(pageNum),
		"-l", strconv.Itoa(pageNum),
		"-enc", "UTF-8", "-nopgbrk",
		filePath, "-")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed for page %d: %w", pageNum, err)
	}
	if trimmed := strings.TrimSpace(out.String()); trimmed != "" {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNum)
}

func runTesseract(ctx context.Context, imagePath string, languages []string) (string, error) {
	lang := "eng"
	if len(languages) > 0 {
		lang = strings.Join(languages, "+")
	}
	cmd := exec.CommandContext(ctx, "tesseract",
		imagePath, "stdout",
		"-l", lang,
		"--oem", "3", // LSTM engine
		"--psm", "3", // auto page segmentation
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run tesseract: %w", err)
	}
	if trimmed := strings.TrimSpace(out.String()); trimmed != "" {
		return trimmed, nil
	}
	return "", fmt.Errorf("tesseract recognized no text in %s", filepath.Base(imagePath))
}

// getNumPages reads the page count from pdfinfo output.
func getNumPages(ctx context.Context, pdfPath string) (int, error) {
	cmd := exec.CommandContext(ctx, "pdfinfo", pdfPath)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("error running pdfinfo: %w", err)
	}

	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		if m := pagesRe.FindStringSubmatch(scanner.Text()); len(m) == 2 {
			return strconv.Atoi(m[1])
		}
	}
	return 0, fmt.Errorf("unable to determine page count from pdfinfo")
}

func cleanExtractedText(text string) string {
	replacements := map[string]string{
		"\u0000": "",   // null character
		"\ufffd": "",   // unicode replacement character
		"\u001b": "",   // escape character
		"\r":     "",   // carriage return
		"\f":     "\n", // form feed to newline
	}
	cleaned := text
	for old, repl := range replacements {
		cleaned = strings.ReplaceAll(cleaned, old, repl)
	}
	return strings.TrimSpace(cleaned)
}
