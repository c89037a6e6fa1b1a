package types

const (
	EmbeddingModel      = "text-embedding-004"
	EmbeddingDimensions = 768
	TaskTypeDocument    = "RETRIEVAL_DOCUMENT"
)

// EmbeddingRequest is the body of a Gemini embedContent call.
type EmbeddingRequest struct {
	Model                string           `json:"model"`
	Content              EmbeddingContent `json:"content"`
	TaskType             string           `json:"taskType,omitempty"`
	OutputDimensionality int              `json:"outputDimensionality,omitempty"`
}

type EmbeddingContent struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type EmbeddingResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}
