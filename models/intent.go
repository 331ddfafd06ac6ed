package models

// IntentType is the user's high-level goal for a single turn.
type IntentType string

const (
	IntentCreate  IntentType = "CREATE"
	IntentModify  IntentType = "MODIFY"
	IntentCancel  IntentType = "CANCEL"
	IntentQuery   IntentType = "QUERY"
	IntentUnknown IntentType = "UNKNOWN"
)

// Intent pairs the classified goal with the extractor's confidence in [0,1].
type Intent struct {
	Type       IntentType `json:"type"`
	Confidence float64    `json:"confidence"`
}

// Polarity captures yes/no flavor of a turn, used while awaiting confirmation.
type Polarity string

const (
	PolarityAffirmative Polarity = "affirmative"
	PolarityNegative    Polarity = "negative"
	PolarityNeutral     Polarity = "neutral"
)

// Extraction is the extractor's full result for one utterance: the intent,
// the confirmation polarity, and the newly mentioned slot values.
type Extraction struct {
	Intent   Intent   `json:"intent"`
	Polarity Polarity `json:"polarity"`
	Slots    SlotDiff `json:"slots"`
}
