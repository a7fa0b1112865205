package moderation

// DefaultRejectionThreshold is the NSFW likelihood above which a text is
// classified as rejected.
const DefaultRejectionThreshold = 0.2

// Outcome statuses. "success" and "succeeded" are the historical markers for
// payloads with no text-moderation section and an empty results list
// respectively; both strings are kept as-is for report compatibility.
const (
	OutcomeValidated        = "validated"
	OutcomeRejected         = "rejected"
	OutcomeNoModerationData = "success"
	OutcomeEmptyResults     = "succeeded"
)

// Outcome is the classification of one moderated text.
type Outcome struct {
	RejectionPercentage float64
	Category            string
	Status              string
}

// Interpret classifies a completed moderation result against threshold.
// Only the first provider entry is scored; the dominant category is the item
// with the highest likelihood, first one winning ties.
func Interpret(res *Result, threshold float64) Outcome {
	tm := res.Content.Results.TextModeration
	if tm == nil {
		return Outcome{Category: UnknownCategory, Status: OutcomeNoModerationData}
	}
	if len(tm.Results) == 0 {
		return Outcome{Category: UnknownCategory, Status: OutcomeEmptyResults}
	}

	first := tm.Results[0]
	status := OutcomeValidated
	if first.NSFWLikelihoodScore >= threshold {
		status = OutcomeRejected
	}

	category := UnknownCategory
	highest := 0.0
	for _, item := range first.Items {
		if item.LikelihoodScore > highest {
			category = item.Category
			highest = item.LikelihoodScore
		}
	}

	return Outcome{
		RejectionPercentage: first.NSFWLikelihoodScore * 100,
		Category:            category,
		Status:              status,
	}
}
