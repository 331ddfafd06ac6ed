package extractor

import (
	"context"
	"regexp"
	"strings"
	"time"

	"meetsy/models"
	"meetsy/services/directory"
	"meetsy/services/timeparse"
)

// Keyword tables for intent classification. Modify words are checked before
// create words so "reschedule" never reads as "schedule".
var (
	cancelWords = []string{"cancel", "unbook", "never mind", "nevermind", "forget it", "abort"}
	modifyWords = []string{"reschedule", "change", "move it", "move the", "make it", "instead", "rather", "actually"}
	createWords = []string{"book", "schedule", "meeting", "call", "appointment", "reserve", "set up"}
	queryWords  = []string{"free", "available", "availability", "slots", "open", "have time", "free time"}

	affirmWords = []string{"yes", "yeah", "yep", "sure", "ok", "okay", "confirm", "sounds good", "perfect", "go ahead", "that works", "correct"}
	negateWords = []string{"no", "nope", "nah", "don't", "do not"}
)

var (
	quotedTitleRe = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	aboutTitleRe  = regexp.MustCompile(`(?i)\b(?:about|titled|called)\s+(.+?)(?:\s+with\b|\s+at\b|\s+on\b|\s+for\b|\s+tomorrow\b|$)`)
	attendeesRe   = regexp.MustCompile(`(?i)\bwith\s+([a-z]+(?:(?:\s*,\s*|\s+and\s+)[a-z]+)*)`)
)

// Words that follow "with" but are not attendee names.
var attendeeStopWords = map[string]bool{
	"me": true, "you": true, "the": true, "a": true, "an": true, "my": true,
	"our": true, "them": true, "him": true, "her": true, "everyone": true,
	"team": true, "it": true,
}

// RuleExtractor is the keyword and pattern based extractor. It needs no
// model backend and is the default implementation.
type RuleExtractor struct {
	Times     *timeparse.Resolver
	Directory directory.Resolver
}

func NewRuleExtractor(times *timeparse.Resolver, dir directory.Resolver) *RuleExtractor {
	return &RuleExtractor{Times: times, Directory: dir}
}

func (e *RuleExtractor) Extract(ctx context.Context, utterance string, current models.SlotSet, ref time.Time) (models.Extraction, error) {
	lower := strings.ToLower(strings.TrimSpace(utterance))

	ext := models.Extraction{
		Intent:   models.Intent{Type: models.IntentUnknown, Confidence: 0.2},
		Polarity: classifyPolarity(lower),
	}
	if lower == "" {
		return ext, nil
	}

	ext.Intent = classifyIntent(lower, current)

	// Slot extraction is independent of the classified intent; the dialogue
	// decides what to do with the diff.
	var advisory error

	if d, ok := timeparse.ResolveDuration(lower); ok {
		ext.Slots.Duration = &d
	} else if timeparse.MentionsDuration(lower) && ext.Intent.Type != models.IntentQuery {
		advisory = models.NewErrorf(models.KindUnresolvableTime, "could not understand the duration in %q", utterance)
	}

	if err := e.applyTime(&ext.Slots, lower, current, ref); err != nil {
		advisory = err
	}

	if title, ok := extractTitle(utterance, lower); ok {
		ext.Slots.Title = &title
	}

	ext.Slots.Attendees = e.extractAttendees(ctx, utterance)

	if ext.Slots.ClearTarget == "" && ext.Intent.Type == models.IntentModify && ext.Slots.Empty() {
		ext.Slots.ClearTarget = modifyTarget(lower)
	}

	// A bare slot answer ("30 minutes", "3pm"), a bare yes/no, or an ordinal
	// pick ("the first one") is a continuation, not noise: rank it above the
	// clarification threshold so the dialogue acts on it.
	if ext.Intent.Type == models.IntentUnknown &&
		(!ext.Slots.Empty() || ext.Polarity != models.PolarityNeutral || mentionsOrdinal(lower)) {
		ext.Intent.Confidence = 0.6
	}

	return ext, advisory
}

func classifyIntent(lower string, current models.SlotSet) models.Intent {
	switch {
	case containsAny(lower, cancelWords):
		return models.Intent{Type: models.IntentCancel, Confidence: 0.9}
	case containsAny(lower, modifyWords):
		return models.Intent{Type: models.IntentModify, Confidence: 0.85}
	case containsAny(lower, createWords):
		return models.Intent{Type: models.IntentCreate, Confidence: 0.9}
	case containsAny(lower, queryWords):
		return models.Intent{Type: models.IntentQuery, Confidence: 0.85}
	}
	return models.Intent{Type: models.IntentUnknown, Confidence: 0.2}
}

func classifyPolarity(lower string) models.Polarity {
	words := tokenize(lower)
	for _, w := range negateWords {
		if hasPhrase(words, lower, w) {
			return models.PolarityNegative
		}
	}
	for _, w := range affirmWords {
		if hasPhrase(words, lower, w) {
			return models.PolarityAffirmative
		}
	}
	return models.PolarityNeutral
}

// applyTime turns the temporal content of the utterance into a slot diff. A
// bare clock answer rebases onto a previously collected date; everything
// else takes the top-ranked candidate from the resolver.
func (e *RuleExtractor) applyTime(diff *models.SlotDiff, lower string, current models.SlotSet, ref time.Time) error {
	if current.PendingDate != nil {
		p, err := e.Times.Parts(lower, ref)
		if err != nil {
			return err
		}
		if p.HasTime && !p.HasDay {
			base := *current.PendingDate
			start := time.Date(base.Year(), base.Month(), base.Day(), p.Hour, p.Minute, 0, 0, e.Times.Location)
			diff.Start = &start
			return nil
		}
	}

	ranges, err := e.Times.Resolve(lower, ref)
	if err != nil || len(ranges) == 0 {
		return err
	}
	best := ranges[0]
	if best.AllDay() {
		day := best.Start
		diff.Date = &day
		return nil
	}
	start := best.Start
	diff.Start = &start
	return nil
}

func extractTitle(original, lower string) (string, bool) {
	if m := quotedTitleRe.FindStringSubmatch(original); m != nil {
		if m[1] != "" {
			return m[1], true
		}
		return m[2], true
	}
	if m := aboutTitleRe.FindStringSubmatch(original); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	// Derive a default from the trigger noun.
	switch {
	case strings.Contains(lower, "call"):
		return "Call", true
	case strings.Contains(lower, "meeting"):
		return "Meeting", true
	case strings.Contains(lower, "appointment"):
		return "Appointment", true
	}
	return "", false
}

func (e *RuleExtractor) extractAttendees(ctx context.Context, utterance string) []models.Attendee {
	m := attendeesRe.FindStringSubmatch(utterance)
	if m == nil {
		return nil
	}
	var out []models.Attendee
	for _, raw := range regexp.MustCompile(`\s*,\s*|\s+and\s+`).Split(m[1], -1) {
		name := strings.TrimSpace(raw)
		if name == "" || attendeeStopWords[strings.ToLower(name)] || weekdayOrDateWord(name) {
			continue
		}
		a := models.Attendee{Name: name}
		if e.Directory != nil {
			if id, err := e.Directory.ResolveAttendee(ctx, name); err == nil {
				a.ID = id
			} else {
				a.NeedsResolution = true
			}
		} else {
			a.NeedsResolution = true
		}
		out = append(out, a)
	}
	return out
}

// modifyTarget maps a valueless MODIFY utterance to the slot it wants
// re-collected.
func modifyTarget(lower string) string {
	switch {
	case strings.Contains(lower, "time"), strings.Contains(lower, "date"), strings.Contains(lower, "day"):
		return models.SlotStart
	case strings.Contains(lower, "duration"), strings.Contains(lower, "length"), strings.Contains(lower, "long"):
		return models.SlotDuration
	case strings.Contains(lower, "title"), strings.Contains(lower, "name"), strings.Contains(lower, "subject"):
		return models.SlotTitle
	case strings.Contains(lower, "attendee"), strings.Contains(lower, "people"), strings.Contains(lower, "who"):
		return models.SlotAttendees
	}
	return ""
}

// A digit glued to a time expression ("3:30", "3pm") is not a pick.
var ordinalAnswerRe = regexp.MustCompile(`(?:^|\s)(?:option\s+)?(\d)(?:[\s.,!?]|$)`)

// mentionsOrdinal reports whether the utterance looks like a pick from an
// offered list of options.
func mentionsOrdinal(lower string) bool {
	for _, w := range tokenize(lower) {
		switch w {
		case "first", "second", "third":
			return true
		}
	}
	return ordinalAnswerRe.MatchString(lower)
}

func weekdayOrDateWord(name string) bool {
	switch strings.ToLower(name) {
	case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		"today", "tomorrow", "tonight":
		return true
	}
	return false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(c rune) bool {
		return !('a' <= c && c <= 'z') && c != '\''
	})
}

// hasPhrase matches single words against tokens (so "no" never fires inside
// "noon") and multi-word phrases by substring.
func hasPhrase(words []string, lower, phrase string) bool {
	if strings.Contains(phrase, " ") {
		return strings.Contains(lower, phrase)
	}
	for _, w := range words {
		if w == phrase {
			return true
		}
	}
	return false
}
