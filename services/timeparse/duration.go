package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Fixed phrase table for relative durations.
var durationPhrases = map[string]time.Duration{
	"quarter of an hour": 15 * time.Minute,
	"quarter hour":       15 * time.Minute,
	"half an hour":       30 * time.Minute,
	"half hour":          30 * time.Minute,
	"an hour and a half": 90 * time.Minute,
	"hour and a half":    90 * time.Minute,
	"an hour":            time.Hour,
	"one hour":           time.Hour,
	"all day":            8 * time.Hour,
}

var (
	minutesRe = regexp.MustCompile(`\b(\d+)\s*(?:minutes?|mins?|m)\b`)
	hoursRe   = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`)
)

// ResolveDuration maps a duration phrase to a concrete span. Longer phrases
// are matched before shorter ones so "half an hour" never reads as "an hour".
func ResolveDuration(text string) (time.Duration, bool) {
	lower := strings.ToLower(text)

	for _, phrase := range []string{
		"quarter of an hour", "quarter hour",
		"an hour and a half", "hour and a half",
		"half an hour", "half hour",
		"an hour", "one hour", "all day",
	} {
		if strings.Contains(lower, phrase) {
			return durationPhrases[phrase], true
		}
	}

	if m := hoursRe.FindStringSubmatch(lower); m != nil {
		hours, err := strconv.ParseFloat(m[1], 64)
		if err == nil && hours > 0 && hours <= 24 {
			return time.Duration(hours * float64(time.Hour)), true
		}
	}
	if m := minutesRe.FindStringSubmatch(lower); m != nil {
		mins, err := strconv.Atoi(m[1])
		if err == nil && mins > 0 && mins <= 24*60 {
			return time.Duration(mins) * time.Minute, true
		}
	}
	return 0, false
}

// MentionsDuration reports whether the text appears to talk about a length
// of time at all, used to tell "unrecognized duration" apart from "no
// duration mentioned".
func MentionsDuration(text string) bool {
	lower := strings.ToLower(text)
	if _, ok := ResolveDuration(lower); ok {
		return true
	}
	for _, marker := range []string{"minute", "hour", " min", " hr", "long"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
