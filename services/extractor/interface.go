// Package extractor classifies utterance intent and pulls candidate slot
// values out of free text.
package extractor

import (
	"context"
	"time"

	"meetsy/models"
)

// Extractor turns one raw utterance into an intent plus a partial slot set.
// The current slot set is provided for ellipsis resolution ("make it an
// hour" implies MODIFY on duration). Extraction is best-effort: malformed
// text yields UNKNOWN with an empty diff, never a hard failure. A returned
// error is advisory (UnresolvableTime, AmbiguousSlot) and the dialogue
// degrades it to a clarifying question.
type Extractor interface {
	Extract(ctx context.Context, utterance string, current models.SlotSet, ref time.Time) (models.Extraction, error)
}
