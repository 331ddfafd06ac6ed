// Package timeparse converts relative and fuzzy date-time phrases into
// concrete instants in a reference timezone.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"meetsy/models"
)

// Range is one resolved candidate with its extraction confidence. End equal
// to Start means the phrase named an instant with no duration information;
// a full-day span means the phrase named only a date.
type Range struct {
	Start      time.Time
	End        time.Time
	Confidence float64
}

// AllDay reports whether the candidate named only a date.
func (r Range) AllDay() bool {
	return !r.End.Equal(r.Start)
}

// Parts is the decomposed result of a phrase: the date portion and the
// time-of-day portion, each independently optional.
type Parts struct {
	Day      time.Time
	HasDay   bool
	Hour     int
	Minute   int
	HasTime  bool
	DayConf  float64
	TimeConf float64
}

// Resolver resolves free text against a configured location. It performs no
// I/O; the reference instant is always passed in by the caller.
type Resolver struct {
	Location *time.Location
}

func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{Location: loc}
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var (
	clockRe    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	meridiemRe = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	monthDayRe = regexp.MustCompile(`\b([a-z]+)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	dayMonthRe = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?([a-z]+)\b`)
)

// Parts decomposes the phrase into its date and time-of-day components.
// Phrases naming a past-only date fail with UnresolvableTime; a named
// weekday contradicting an explicit date fails with AmbiguousSlot; text
// with no temporal content returns an empty Parts and no error.
func (r *Resolver) Parts(text string, ref time.Time) (Parts, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	ref = ref.In(r.Location)

	var p Parts
	day, dayConf, err := r.resolveDay(lower, ref)
	if err != nil {
		return Parts{}, err
	}
	if !day.IsZero() {
		p.Day, p.HasDay, p.DayConf = day, true, dayConf
	}

	if hour, minute, conf, ok := resolveClock(lower); ok {
		p.Hour, p.Minute, p.HasTime, p.TimeConf = hour, minute, true, conf
	}
	return p, nil
}

// Resolve extracts candidate time ranges from text relative to ref, ranked
// by confidence.
func (r *Resolver) Resolve(text string, ref time.Time) ([]Range, error) {
	p, err := r.Parts(text, ref)
	if err != nil {
		return nil, err
	}
	ref = ref.In(r.Location)

	switch {
	case p.HasDay && p.HasTime:
		start := time.Date(p.Day.Year(), p.Day.Month(), p.Day.Day(), p.Hour, p.Minute, 0, 0, r.Location)
		// "today at 9am" said in the afternoon rolls to tomorrow, the
		// nearest future occurrence.
		if start.Before(ref) && sameDay(p.Day, ref) {
			start = start.AddDate(0, 0, 1)
		}
		if start.Before(ref) {
			return nil, models.NewErrorf(models.KindUnresolvableTime, "%q resolves to a past instant", text)
		}
		return []Range{{Start: start, End: start, Confidence: p.DayConf * p.TimeConf}}, nil

	case p.HasDay:
		start := time.Date(p.Day.Year(), p.Day.Month(), p.Day.Day(), 0, 0, 0, 0, r.Location)
		return []Range{{Start: start, End: start.AddDate(0, 0, 1), Confidence: p.DayConf * 0.6}}, nil

	case p.HasTime:
		start := time.Date(ref.Year(), ref.Month(), ref.Day(), p.Hour, p.Minute, 0, 0, r.Location)
		if !start.After(ref) {
			start = start.AddDate(0, 0, 1)
		}
		return []Range{{Start: start, End: start, Confidence: p.TimeConf * 0.7}}, nil
	}
	return nil, nil
}

// resolveDay finds the date portion of the phrase. The zero time means no
// date was mentioned.
func (r *Resolver) resolveDay(lower string, ref time.Time) (time.Time, float64, error) {
	today := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, r.Location)

	switch {
	case strings.Contains(lower, "day after tomorrow"):
		return today.AddDate(0, 0, 2), 0.95, nil
	case strings.Contains(lower, "tomorrow"):
		return today.AddDate(0, 0, 1), 0.95, nil
	case strings.Contains(lower, "yesterday"):
		return time.Time{}, 0, models.NewError(models.KindUnresolvableTime, "cannot schedule in the past")
	case strings.Contains(lower, "today"), strings.Contains(lower, "tonight"):
		return today, 0.95, nil
	case strings.Contains(lower, "next week"):
		// Next week means the coming Monday, or a full week out when today
		// is already Monday.
		days := (int(time.Monday) - int(ref.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return today.AddDate(0, 0, days), 0.8, nil
	case strings.Contains(lower, "this week"):
		return today.AddDate(0, 0, 1), 0.6, nil
	}

	var weekdayDay time.Time
	var named time.Weekday
	hasWeekday := false
	for _, word := range strings.FieldsFunc(lower, func(c rune) bool {
		return !('a' <= c && c <= 'z')
	}) {
		wd, ok := weekdays[word]
		if !ok {
			continue
		}
		days := (int(wd) - int(ref.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		if strings.Contains(lower, "next "+word) {
			// "next Tuesday" said on a Monday still means the week after.
			if days < 7 {
				days += 7
			}
		}
		weekdayDay, named, hasWeekday = today.AddDate(0, 0, days), wd, true
		break
	}

	explicitDay, hasExplicit, err := r.resolveExplicitDate(lower, today)
	if err != nil {
		return time.Time{}, 0, err
	}

	switch {
	case hasWeekday && hasExplicit:
		// "Monday June 5" when June 5 falls on a Friday has two readings;
		// make the caller ask rather than silently picking one.
		if explicitDay.Weekday() != named {
			return time.Time{}, 0, models.NewErrorf(models.KindAmbiguousSlot,
				"%s is a %s, not a %s", explicitDay.Format("January 2"), explicitDay.Weekday(), named)
		}
		return explicitDay, 0.9, nil
	case hasExplicit:
		return explicitDay, 0.9, nil
	case hasWeekday:
		return weekdayDay, 0.85, nil
	}
	return time.Time{}, 0, nil
}

// resolveExplicitDate handles "June 5" / "5 June" style dates, resolving a
// yearless date to its nearest future occurrence.
func (r *Resolver) resolveExplicitDate(lower string, today time.Time) (time.Time, bool, error) {
	var month time.Month
	var dayNum int
	found := false

	for _, m := range monthDayRe.FindAllStringSubmatch(lower, -1) {
		if mo, ok := months[m[1]]; ok {
			month = mo
			dayNum, _ = strconv.Atoi(m[2])
			found = true
			break
		}
	}
	if !found {
		for _, m := range dayMonthRe.FindAllStringSubmatch(lower, -1) {
			if mo, ok := months[m[2]]; ok {
				month = mo
				dayNum, _ = strconv.Atoi(m[1])
				found = true
				break
			}
		}
	}
	if !found {
		return time.Time{}, false, nil
	}
	if dayNum < 1 || dayNum > 31 {
		return time.Time{}, false, models.NewErrorf(models.KindUnresolvableTime, "no such day of month: %d", dayNum)
	}

	candidate := time.Date(today.Year(), month, dayNum, 0, 0, 0, 0, r.Location)
	if candidate.Month() != month {
		return time.Time{}, false, models.NewErrorf(models.KindUnresolvableTime, "no such date: %s %d", month, dayNum)
	}
	if candidate.Before(today) {
		candidate = time.Date(today.Year()+1, month, dayNum, 0, 0, 0, 0, r.Location)
		if candidate.Month() != month {
			return time.Time{}, false, models.NewErrorf(models.KindUnresolvableTime, "no such date: %s %d", month, dayNum)
		}
	}
	return candidate, true, nil
}

// resolveClock finds the time-of-day portion of the phrase.
func resolveClock(lower string) (hour, minute int, conf float64, ok bool) {
	if m := clockRe.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		hour = applyMeridiem(hour, m[3])
		if hour > 23 || minute > 59 {
			return 0, 0, 0, false
		}
		return hour, minute, 0.95, true
	}
	if m := meridiemRe.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		hour = applyMeridiem(hour, m[2])
		if hour > 23 {
			return 0, 0, 0, false
		}
		return hour, 0, 0.9, true
	}

	// Day-period defaults.
	switch {
	case strings.Contains(lower, "morning"):
		return 9, 0, 0.6, true
	case strings.Contains(lower, "afternoon"):
		return 14, 0, 0.6, true
	case strings.Contains(lower, "evening"), strings.Contains(lower, "tonight"):
		return 17, 0, 0.6, true
	case strings.Contains(lower, "noon"):
		return 12, 0, 0.8, true
	}
	return 0, 0, 0, false
}

func applyMeridiem(hour int, meridiem string) int {
	switch meridiem {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
