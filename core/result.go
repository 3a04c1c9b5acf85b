package core

// Fixed values carried by a fatal batch result.
const (
	AggregateFailureError = "AggregateExtractionFailed"
	AggregateFailureCause = "Invalid response."
)

// DocumentAttributes holds the attribute values extracted for one document.
type DocumentAttributes struct {
	FileName  string         `json:"file_name"`
	Answer    map[string]any `json:"answer"`
	RawAnswer string         `json:"raw_answer,omitempty"`
}

// DocumentFailure records a document dropped from the aggregate step.
type DocumentFailure struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

// BatchFailure is the terminal error of a batch whose aggregate step failed.
type BatchFailure struct {
	Error string `json:"error"`
	Cause string `json:"cause"`
}

// BatchResult is the terminal output of a batch.
// On success Documents follows the request order, minus isolated failures.
// On failure Documents is empty and Failure is set.
type BatchResult struct {
	BatchID   string               `json:"batch_id"`
	Status    BatchStatus          `json:"status"`
	Documents []DocumentAttributes `json:"documents,omitempty"`
	Failures  []DocumentFailure    `json:"failures,omitempty"`
	Failure   *BatchFailure        `json:"failure,omitempty"`
}

// NewFailedResult returns the fatal-failure shape.
func NewFailedResult(batchID string, failures []DocumentFailure) *BatchResult {
	return &BatchResult{
		BatchID:  batchID,
		Status:   BatchFailed,
		Failures: failures,
		Failure: &BatchFailure{
			Error: AggregateFailureError,
			Cause: AggregateFailureCause,
		},
	}
}

// Succeeded reports whether the batch produced attribute output.
func (r *BatchResult) Succeeded() bool {
	return r.Status == BatchSucceeded
}
