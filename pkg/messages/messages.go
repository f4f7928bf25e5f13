package messages

import "encoding/json"

// GradeRequest is the wire form of a grading request, shared by the HTTP
// endpoint and the queue ingestion path.
type GradeRequest struct {
	Code      string     `json:"code"`
	Language  string     `json:"language"`
	TestCases []TestCase `json:"testCases"`
}

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	Description    string `json:"description,omitempty"`
}

// ErrorResponse carries a structured error back to the caller. Field and Code
// are set for validation failures so the UI can highlight the offending field.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Code  string `json:"code,omitempty"`
}

// QueueMessage is the envelope for messages consumed from the grade queue.
type QueueMessage struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Payload   json.RawMessage `json:"payload"`
}

// ResponseQueueMessage is the envelope published to the response queue.
type ResponseQueueMessage struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Ok        bool            `json:"ok"`
	Payload   json.RawMessage `json:"payload"`
}

// HandshakePayload reports the grading targets this engine supports.
type HandshakePayload struct {
	Languages []string `json:"languages"`
}
