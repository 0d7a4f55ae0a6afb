package extractor

import "context"

// Chunk is one content unit identified by the document-analysis
// service within a page.
type Chunk struct {
	ID         string
	Type       string // "table", "text", "title", ...
	Text       string // HTML or plain text as emitted by the service
	Groundings []Grounding
}

// Grounding anchors a chunk to a location in the source page.
type Grounding struct {
	Page int `json:"page"`
	Box  Box `json:"box"`
}

// Box is a normalized bounding box.
type Box struct {
	L float64 `json:"l"`
	T float64 `json:"t"`
	R float64 `json:"r"`
	B float64 `json:"b"`
}

// Service is the external structured-extraction collaborator. One call
// per page document; no batching.
type Service interface {
	Parse(ctx context.Context, path string) ([]Chunk, error)
}
