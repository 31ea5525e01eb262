package api

// CallbackResult is the transcriber webhook payload result part
type CallbackResult struct {
	Text string `json:"text"`
}

// CallbackData is the transcriber webhook payload
type CallbackData struct {
	TaskID string          `json:"task_id"`
	Status string          `json:"status"`
	Result *CallbackResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
