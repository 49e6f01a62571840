package models

import "github.com/google/uuid"

// Suggestion statuses. Approving a row flips it from suggested to active;
// rejecting deletes it outright.
const (
	StatusSuggested = "suggested"
	StatusActive    = "active"
)

// SuggestedFeature is a crowd-submitted question awaiting moderation.
type SuggestedFeature struct {
	ID           uuid.UUID `json:"id"`
	DomainName   string    `json:"domain_name"`
	FeatureName  string    `json:"feature_name"`
	QuestionText string    `json:"question_text"`
	Status       string    `json:"status"`
}

// SuggestedItem is a crowd-submitted guessable item awaiting moderation.
type SuggestedItem struct {
	ID         uuid.UUID `json:"id"`
	ItemName   string    `json:"item_name"`
	DomainName string    `json:"domain_name"`
	Status     string    `json:"status"`
}
