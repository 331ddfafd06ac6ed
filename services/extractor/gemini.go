// File: services/extractor/gemini.go
package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meetsy/models"
	"meetsy/services/directory"
	"meetsy/utils"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const geminiPromptTemplate = `You are a scheduling assistant that extracts booking details from messages.
Today's date is %s and the timezone is %s.
Classify the intent as one of CREATE, MODIFY, CANCEL, QUERY, UNKNOWN and extract any
mentioned slots. Use 'not specified' for anything the message does not mention.

Respond with exactly these lines:
Intent: [CREATE|MODIFY|CANCEL|QUERY|UNKNOWN]
Confidence: [0.0-1.0]
Polarity: [affirmative|negative|neutral]
Date: [YYYY-MM-DD or 'not specified']
Time: [HH:MM 24h or 'not specified']
Duration: [minutes or 'not specified']
Title: [title text or 'not specified']
Attendees: [comma separated names or 'not specified']

Message: %s`

// GeminiExtractor asks Gemini to extract intent and slots, falling back to
// the rule-based extractor whenever the model call or its output fails.
type GeminiExtractor struct {
	model     *genai.GenerativeModel
	fallback  *RuleExtractor
	directory directory.Resolver
	location  *time.Location
}

func NewGeminiExtractor(apiKey string, fallback *RuleExtractor, dir directory.Resolver, loc *time.Location) (*GeminiExtractor, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &GeminiExtractor{
		model:     client.GenerativeModel("models/gemini-1.5-pro"),
		fallback:  fallback,
		directory: dir,
		location:  loc,
	}, nil
}

func (e *GeminiExtractor) Extract(ctx context.Context, utterance string, current models.SlotSet, ref time.Time) (models.Extraction, error) {
	prompt := fmt.Sprintf(geminiPromptTemplate,
		ref.In(e.location).Format("2006-01-02"), e.location.String(), utterance)

	resp, err := e.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		utils.GetLogger().Warn("gemini extraction failed, using rule extractor", zap.Error(err))
		return e.fallback.Extract(ctx, utterance, current, ref)
	}

	output, ok := collectText(resp)
	if !ok {
		utils.GetLogger().Warn("empty gemini response, using rule extractor")
		return e.fallback.Extract(ctx, utterance, current, ref)
	}

	ext, ok := e.parse(ctx, output, current, ref)
	if !ok {
		utils.GetLogger().Warn("unparseable gemini extraction, using rule extractor",
			zap.String("output", output))
		return e.fallback.Extract(ctx, utterance, current, ref)
	}
	return ext, nil
}

// collectText flattens the first candidate's text parts. Responses with no
// candidates or no content (safety blocks return these) report !ok.
func collectText(resp *genai.GenerateContentResponse) (string, bool) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String(), true
}

func (e *GeminiExtractor) parse(ctx context.Context, output string, current models.SlotSet, ref time.Time) (models.Extraction, bool) {
	ext := models.Extraction{
		Intent:   models.Intent{Type: models.IntentUnknown, Confidence: 0.2},
		Polarity: models.PolarityNeutral,
	}
	sawIntent := false

	var dateStr, timeStr string
	for _, line := range strings.Split(output, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, "not specified") {
			continue
		}
		switch strings.TrimSpace(strings.ToLower(key)) {
		case "intent":
			switch models.IntentType(strings.ToUpper(value)) {
			case models.IntentCreate, models.IntentModify, models.IntentCancel, models.IntentQuery, models.IntentUnknown:
				ext.Intent.Type = models.IntentType(strings.ToUpper(value))
				sawIntent = true
			}
		case "confidence":
			fmt.Sscanf(value, "%f", &ext.Intent.Confidence)
		case "polarity":
			switch models.Polarity(strings.ToLower(value)) {
			case models.PolarityAffirmative, models.PolarityNegative:
				ext.Polarity = models.Polarity(strings.ToLower(value))
			}
		case "date":
			dateStr = value
		case "time":
			timeStr = value
		case "duration":
			var mins int
			if _, err := fmt.Sscanf(value, "%d", &mins); err == nil && mins > 0 {
				d := time.Duration(mins) * time.Minute
				ext.Slots.Duration = &d
			}
		case "title":
			title := value
			ext.Slots.Title = &title
		case "attendees":
			for _, name := range strings.Split(value, ",") {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				a := models.Attendee{Name: name}
				if id, err := e.directory.ResolveAttendee(ctx, name); err == nil {
					a.ID = id
				} else {
					a.NeedsResolution = true
				}
				ext.Slots.Attendees = append(ext.Slots.Attendees, a)
			}
		}
	}
	if !sawIntent {
		return models.Extraction{}, false
	}

	e.applyDateTime(&ext.Slots, dateStr, timeStr, current, ref)
	return ext, true
}

func (e *GeminiExtractor) applyDateTime(diff *models.SlotDiff, dateStr, timeStr string, current models.SlotSet, ref time.Time) {
	var day time.Time
	hasDay := false
	if dateStr != "" {
		if parsed, err := time.ParseInLocation("2006-01-02", dateStr, e.location); err == nil {
			day, hasDay = parsed, true
		}
	}
	var hour, minute int
	hasTime := false
	if timeStr != "" {
		if parsed, err := time.Parse("15:04", timeStr); err == nil {
			hour, minute, hasTime = parsed.Hour(), parsed.Minute(), true
		}
	}

	switch {
	case hasDay && hasTime:
		start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, e.location)
		diff.Start = &start
	case hasDay:
		diff.Date = &day
	case hasTime:
		base := ref.In(e.location)
		if current.PendingDate != nil {
			base = *current.PendingDate
		}
		start := time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, e.location)
		if current.PendingDate == nil && !start.After(ref) {
			start = start.AddDate(0, 0, 1)
		}
		diff.Start = &start
	}
}
