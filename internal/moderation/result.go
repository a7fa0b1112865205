package moderation

// Job statuses reported by the provider's asynchronous execution API.
// "succeeded" and "failed" are terminal; "processing" means poll again.
const (
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
)

// UnknownCategory is the fallback label when the provider reports no
// category breakdown for a text.
const UnknownCategory = "Unknown"

// Result is the poll response envelope.
type Result struct {
	Content Content `json:"content"`
}

// Content carries the job status and, once succeeded, the per-feature results.
type Content struct {
	Status  string  `json:"status"`
	Results Results `json:"results"`
}

// Results maps provider features to their payloads. Only text moderation is
// consumed here; other features the provider may return are ignored.
type Results struct {
	TextModeration *TextModeration `json:"text__moderation"`
}

// TextModeration holds one entry per configured provider.
type TextModeration struct {
	Results []TextResult `json:"results"`
}

// TextResult is a single provider's verdict on the submitted text.
type TextResult struct {
	NSFWLikelihoodScore float64 `json:"nsfw_likelihood_score"`
	Items               []Item  `json:"items"`
}

// Item is a per-category likelihood.
type Item struct {
	Category        string  `json:"category"`
	LikelihoodScore float64 `json:"likelihood_score"`
}
