package service

import (
	"github.com/tieubaoca/docqa-be/types"
	"github.com/tieubaoca/docqa-be/utils"
)

// enhancedFormats are eligible for OCR and layout-aware extraction.
var enhancedFormats = map[string]bool{
	"pdf": true, "docx": true, "pptx": true, "xlsx": true,
	"png": true, "jpg": true, "jpeg": true, "tiff": true, "tif": true,
	"bmp": true, "webp": true,
	"html": true, "htm": true,
}

// tabularFormats are handled by lightweight structured parsers when
// enhanced processing is not requested or available.
var tabularFormats = map[string]bool{
	"csv": true, "xlsx": true, "xls": true, "json": true,
}

var textFormats = map[string]bool{
	"txt": true, "md": true, "rtf": true, "html": true, "xml": true,
	"yaml": true, "yml": true,
}

var imageFormats = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true,
	"tiff": true, "tif": true, "webp": true,
}

var documentBlobFormats = map[string]bool{
	"pdf": true, "docx": true, "doc": true, "odt": true,
}

// FormatRouter classifies uploads by extension. Pure, no side effects.
type FormatRouter struct{}

func NewFormatRouter() *FormatRouter {
	return &FormatRouter{}
}

// Classify returns the processing class for a filename, using the
// lowercased last dot-segment as discriminator.
func (r *FormatRouter) Classify(filename string) string {
	ext := utils.FileExt(filename)
	switch {
	case tabularFormats[ext]:
		return types.FormatTabular
	case enhancedFormats[ext]:
		return types.FormatEnhanced
	case textFormats[ext], imageFormats[ext], documentBlobFormats[ext]:
		return types.FormatText
	default:
		return types.FormatUnsupported
	}
}

// EnhancedEligible reports whether the file can go down the OCR path.
func (r *FormatRouter) EnhancedEligible(filename string) bool {
	return enhancedFormats[utils.FileExt(filename)]
}

// Supported reports whether any handler exists for the file at all.
func (r *FormatRouter) Supported(filename string) bool {
	ext := utils.FileExt(filename)
	return tabularFormats[ext] || enhancedFormats[ext] || textFormats[ext] ||
		imageFormats[ext] || documentBlobFormats[ext]
}
