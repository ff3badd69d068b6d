package types

type DataResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type UploadFileResponse struct {
	Success            bool           `json:"success"`
	ChatID             string         `json:"chat_id"`
	Filename           string         `json:"filename"`
	Analysis           map[string]any `json:"analysis,omitempty"`
	Preview            any            `json:"preview,omitempty"`
	Content            any            `json:"content,omitempty"`
	ProcessingMetadata map[string]any `json:"processing_metadata,omitempty"`
}
