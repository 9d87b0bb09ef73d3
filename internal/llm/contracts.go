package llm

import "context"

// RawExtraction is the classifier's response content, untyped on purpose.
// It never crosses the validator boundary: internal/reading narrows it
// into a CopeDragReading or rejects it.
type RawExtraction []byte

// VisionExtractor is the interface the pipeline depends on. One call per
// upload, no retries; transport failures surface as errors so the pipeline
// can resolve them to the error outcome.
type VisionExtractor interface {
	Extract(ctx context.Context, imageData []byte, mimeType string) (RawExtraction, error)
}
