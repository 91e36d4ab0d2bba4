package amqp

import (
	"encoding/json"
	"time"
)

// RecognitionRequest asks a recognition worker for one final transcript.
// The reply is published to the request's ReplyTo queue with the same
// correlation id.
type RecognitionRequest struct {
	CorrelationID string    `json:"correlation_id"`
	Lang          string    `json:"lang"`
	Interim       bool      `json:"interim"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewRecognitionRequest creates a single-shot, final-results-only request.
func NewRecognitionRequest(correlationID, lang string) *RecognitionRequest {
	return &RecognitionRequest{
		CorrelationID: correlationID,
		Lang:          lang,
		Interim:       false,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the request to JSON bytes
func (m *RecognitionRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecognitionResult is the worker's reply. Error is set when recognition failed.
type RecognitionResult struct {
	CorrelationID string `json:"correlation_id"`
	Transcript    string `json:"transcript"`
	Error         string `json:"error,omitempty"`
}

// RecognitionResultFromJSON creates a result from JSON bytes
func RecognitionResultFromJSON(data []byte) (*RecognitionResult, error) {
	var msg RecognitionResult
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
