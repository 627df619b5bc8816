// ABOUTME: Answer type returned by the retrieval-augmented answerer
// ABOUTME: Status captures the terminal state of the per-query state machine
package models

// AnswerStatus is the terminal state of one query
type AnswerStatus string

const (
	StatusAnswered AnswerStatus = "answered"
	StatusRejected AnswerStatus = "rejected"
	StatusFailed   AnswerStatus = "failed"
)

// Answer is the user-visible outcome of a question
type Answer struct {
	Status  AnswerStatus   `json:"status"`
	Text    string         `json:"text"`
	Reason  string         `json:"reason,omitempty"`
	Verdict Verdict        `json:"verdict"`
	Sources []SearchResult `json:"sources,omitempty"`
	// Retryable is set when the index was not ready yet
	Retryable bool `json:"retryable,omitempty"`
}
