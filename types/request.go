package types

// UploadFileRequest carries one uploaded file into the processing core.
// Content is read fully up front so retries never depend on a seekable
// stream.
type UploadFileRequest struct {
	Filename    string
	Content     []byte
	ForceOCR    bool
	OCRLanguage []string
	ChatID      string
}
