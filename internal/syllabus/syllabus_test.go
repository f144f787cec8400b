package syllabus

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeAI struct {
	reply  string
	prompt string
}

func (f *fakeAI) Ask(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, nil
}

func TestParseEvents(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		reply string
		want  int
	}{
		{
			name:  "plain array",
			reply: `[{"event": "Midterm", "date": "2026-10-25T09:00", "note": "exam"}]`,
			want:  1,
		},
		{
			name: "fenced with prose",
			reply: "Вот события:\n```json\n" +
				`[{"event": "Quiz 1", "date": "2026-09-10T12:00", "note": ""}, {"event": "Final", "date": "2026-12-20", "note": "final"}]` +
				"\n```\nГотово.",
			want: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := parseEvents(tt.reply)
			if err != nil {
				t.Fatalf("parseEvents returned error: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
		})
	}
}

func TestParseEventsNoArray(t *testing.T) {
	t.Parallel()
	if _, err := parseEvents("в документе нет событий"); err == nil {
		t.Error("parseEvents on prose did not fail")
	}
}

func TestParseEventDate(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	got, err := parseEventDate("2026-10-25", loc)
	if err != nil {
		t.Fatalf("parseEventDate returned error: %v", err)
	}
	want := time.Date(2026, time.October, 25, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("bare date = %v, want morning default %v", got, want)
	}

	got, err = parseEventDate("2026-10-25T18:30", loc)
	if err != nil {
		t.Fatalf("parseEventDate returned error: %v", err)
	}
	want = time.Date(2026, time.October, 25, 18, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("dated time = %v, want %v", got, want)
	}
}

func TestExtractFiltersPastEvents(t *testing.T) {
	t.Parallel()
	ai := &fakeAI{reply: `[
		{"event": "Old Quiz", "date": "2026-01-10T09:00", "note": ""},
		{"event": "Final", "date": "2026-12-20T09:00", "note": "final exam"},
		{"event": "Broken", "date": "not-a-date", "note": ""}
	]`}
	p := New(ai, zap.NewNop())
	p.now = func() time.Time { return time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC) }

	future, skipped, err := p.Extract(context.Background(), "syllabus text", time.UTC)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(future) != 1 || future[0].Title != "Final" {
		t.Errorf("future = %+v, want only Final", future)
	}
	if len(skipped) != 1 || skipped[0] != "Old Quiz" {
		t.Errorf("skipped = %v, want [Old Quiz]", skipped)
	}
}

func TestExtractTruncatesLongText(t *testing.T) {
	t.Parallel()
	ai := &fakeAI{reply: `[]`}
	p := New(ai, zap.NewNop())

	long := make([]byte, maxPromptText*2)
	for i := range long {
		long[i] = 'a'
	}
	if _, _, err := p.Extract(context.Background(), string(long), time.UTC); err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(ai.prompt) > maxPromptText+500 {
		t.Errorf("prompt length %d, document text was not truncated", len(ai.prompt))
	}
}
