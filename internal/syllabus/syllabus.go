package syllabus

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxPromptText caps how much document text is sent to the model.
const maxPromptText = 7000

// AIClient answers a single prompt.
type AIClient interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// rawEvent is the JSON shape the model is asked to return.
type rawEvent struct {
	Event string `json:"event"`
	Date  string `json:"date"`
	Note  string `json:"note"`
}

// Deadline is one future event extracted from a document.
type Deadline struct {
	Title string
	Note  string
	At    time.Time
}

// Parser extracts quiz/exam/deadline events from document text via the
// language model and filters out events already in the past.
type Parser struct {
	ai     AIClient
	logger *zap.Logger
	now    func() time.Time
}

func New(ai AIClient, logger *zap.Logger) *Parser {
	return &Parser{ai: ai, logger: logger, now: time.Now}
}

var jsonArrayRe = regexp.MustCompile(`(?s)(\[.*\])`)

// Extract asks the model for events in the text and returns future deadlines
// plus the titles of events skipped because their date already passed.
func (p *Parser) Extract(ctx context.Context, text string, loc *time.Location) ([]Deadline, []string, error) {
	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}

	prompt := "Извлеки все события (экзамены, квизы, дедлайны) из этого текста и верни JSON без пояснений:\n\n" +
		`[{"event": "Midterm Exam", "date": "2025-10-25T09:00", "note": "Midterm"}]` +
		"\n\nТекст:\n" + text

	reply, err := p.ai.Ask(ctx, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("event extraction failed: %w", err)
	}

	events, err := parseEvents(reply)
	if err != nil {
		return nil, nil, err
	}

	now := p.now().In(loc)
	var future []Deadline
	var skipped []string
	for _, ev := range events {
		at, err := parseEventDate(ev.Date, loc)
		if err != nil {
			p.logger.Warn("skipping event with bad date",
				zap.String("event", ev.Event),
				zap.String("date", ev.Date),
				zap.Error(err))
			continue
		}
		if at.Before(now) {
			skipped = append(skipped, ev.Event)
			continue
		}
		future = append(future, Deadline{Title: ev.Event, Note: ev.Note, At: at})
	}
	return future, skipped, nil
}

// parseEvents pulls the JSON array out of the model reply, tolerating code
// fences and surrounding prose.
func parseEvents(reply string) ([]rawEvent, error) {
	match := jsonArrayRe.FindStringSubmatch(reply)
	if match == nil {
		return nil, fmt.Errorf("no JSON array in model reply")
	}
	clean := strings.TrimSpace(strings.NewReplacer("```json", "", "```", "").Replace(match[1]))

	var events []rawEvent
	if err := json.Unmarshal([]byte(clean), &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

// parseEventDate accepts "2006-01-02T15:04" or a bare date, which defaults
// to 09:00.
func parseEventDate(raw string, loc *time.Location) (time.Time, error) {
	if len(raw) == 10 {
		raw += "T09:00"
	}
	return time.ParseInLocation("2006-01-02T15:04", raw, loc)
}
