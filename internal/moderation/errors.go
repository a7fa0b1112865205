package moderation

import "fmt"

// SubmissionError reports a submit response that carried no execution id.
// Body holds the raw response for diagnostics.
type SubmissionError struct {
	Body []byte
}

func (e *SubmissionError) Error() string {
	return "no execution id in submit response"
}

// ModerationFailedError reports a job that reached the terminal "failed"
// status. Raw holds the full poll response body.
type ModerationFailedError struct {
	Raw []byte
}

func (e *ModerationFailedError) Error() string {
	return fmt.Sprintf("moderation failed: %s", e.Raw)
}

// UnexpectedStatusError reports a status value outside the known set.
type UnexpectedStatusError struct {
	Status string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected moderation status: %q", e.Status)
}
