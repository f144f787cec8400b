package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
	"github.com/olebedev/when/rules/ru"
)

// ErrNotUnderstood reports input outside the grammar the parser recognizes.
// Callers re-prompt the user instead of guessing.
var ErrNotUnderstood = errors.New("time expression not understood")

// Prefs carries the per-user inputs of the parser: timezone and the three
// named time-of-day slots in HH:MM format.
type Prefs struct {
	Timezone string
	Morning  string
	Midday   string
	Evening  string
}

func DefaultPrefs(timezone string) Prefs {
	return Prefs{
		Timezone: timezone,
		Morning:  "09:00",
		Midday:   "12:00",
		Evening:  "19:00",
	}
}

// Parser resolves free-text time expressions ("завтра в 9", "через 10 минут",
// "25 октября 18:30") into absolute instants in the user's timezone.
type Parser struct {
	w *when.Parser
}

func New() *Parser {
	w := when.New(nil)
	w.Add(ru.All...)
	w.Add(en.All...)
	return &Parser{w: w}
}

// bareTimeRe accepts ":" and "," clock separators only; a "."-separated pair
// is a day-first date ("25.10") and belongs to parseExplicitDate.
var (
	bareTimeRe = regexp.MustCompile(`^(?:в\s*|at\s+)?(\d{1,2})(?:[:,](\d{2}))?$`)
	clockRe    = regexp.MustCompile(`\d{1,2}[:.,]\d{2}`)
)

// Parse resolves text relative to now. Relative expressions resolve forward in
// time, never into the past. A date without an explicit clock component
// defaults to the user's morning slot, not midnight.
func (p *Parser) Parse(text string, prefs Prefs, now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(prefs.Timezone)
	if err != nil {
		loc = time.UTC
	}
	now = now.In(loc)

	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return time.Time{}, ErrNotUnderstood
	}

	morningH, morningM := parseHM(prefs.Morning, 9, 0)

	// Day-first dates ("25.10", "25 октября 18:30") resolve before the
	// bare-time shorthand so "15.03" reads as March 15th, never as 15:03.
	if res, ok := parseExplicitDate(t, now, loc, morningH, morningM); ok {
		return res, nil
	}

	// Bare-time shorthand: "[в] 9" or "[в] 9:30" means today at that time.
	if m := bareTimeRe.FindStringSubmatch(t); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour > 23 || minute > 59 {
			return time.Time{}, ErrNotUnderstood
		}
		res := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
		if !res.After(now) {
			res = res.Add(24 * time.Hour)
		}
		return res, nil
	}

	t = rewriteSlots(t, prefs)

	r, err := p.w.Parse(t, now)
	if err != nil || r == nil {
		return time.Time{}, ErrNotUnderstood
	}
	res := r.Time.In(loc)

	// Future preference for ambiguous relative expressions.
	if res.Before(now) {
		res = res.Add(24 * time.Hour)
		if res.Before(now) {
			return time.Time{}, ErrNotUnderstood
		}
	}

	// Resolver defaulted to midnight with no clock in the input: use the
	// morning slot.
	if res.Hour() == 0 && res.Minute() == 0 && !clockRe.MatchString(t) {
		res = time.Date(res.Year(), res.Month(), res.Day(), morningH, morningM, 0, 0, loc)
	}

	return res.Truncate(time.Minute), nil
}

// rewriteSlots replaces named-slot phrases with concrete "today/tomorrow/in N
// days HH:MM" strings built from the user's slot times.
func rewriteSlots(t string, prefs Prefs) string {
	morning := normalizeHM(prefs.Morning, "09:00")
	midday := normalizeHM(prefs.Midday, "12:00")
	evening := normalizeHM(prefs.Evening, "19:00")

	quick := map[string]string{
		"сегодня утром":          "сегодня " + morning,
		"сегодня днём":           "сегодня " + midday,
		"сегодня днем":           "сегодня " + midday,
		"сегодня вечером":        "сегодня " + evening,
		"завтра утром":           "завтра " + morning,
		"завтра днём":            "завтра " + midday,
		"завтра днем":            "завтра " + midday,
		"завтра вечером":         "завтра " + evening,
		"послезавтра":            "через 2 дня " + morning,
		"через неделю":           "через 7 дней " + morning,
		"this morning":           "today " + morning,
		"today morning":          "today " + morning,
		"this evening":           "today " + evening,
		"today evening":          "today " + evening,
		"tonight":                "today " + evening,
		"tomorrow morning":       "tomorrow " + morning,
		"tomorrow afternoon":     "tomorrow " + midday,
		"tomorrow evening":       "tomorrow " + evening,
		"the day after tomorrow": "in 2 days " + morning,
		"in a week":              "in 7 days " + morning,
	}
	if rewritten, ok := quick[t]; ok {
		return rewritten
	}
	return t
}

var (
	monthDateRe = regexp.MustCompile(`^(\d{1,2})\s+([а-яёa-z]+)\.?(?:\s+(?:в\s*)?(\d{1,2})[:.](\d{2}))?$`)
	numDateRe   = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})(?:[./](\d{2,4}))?(?:\s+(?:в\s*)?(\d{1,2})[:.](\d{2}))?$`)
)

// parseExplicitDate handles day-first explicit dates: "25 октября 18:30",
// "25 oct", "25.10", "25.10.2026 18:30". Day always precedes month.
func parseExplicitDate(t string, now time.Time, loc *time.Location, morningH, morningM int) (time.Time, bool) {
	var day, year, hour, minute int
	var month time.Month
	var hasYear, hasClock bool

	if m := monthDateRe.FindStringSubmatch(t); m != nil {
		mon, ok := monthFromWord(m[2])
		if !ok {
			return time.Time{}, false
		}
		day, _ = strconv.Atoi(m[1])
		month = mon
		if m[3] != "" {
			hour, _ = strconv.Atoi(m[3])
			minute, _ = strconv.Atoi(m[4])
			hasClock = true
		}
	} else if m := numDateRe.FindStringSubmatch(t); m != nil {
		day, _ = strconv.Atoi(m[1])
		mon, _ := strconv.Atoi(m[2])
		if mon < 1 || mon > 12 {
			return time.Time{}, false
		}
		month = time.Month(mon)
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
			hasYear = true
		}
		if m[4] != "" {
			hour, _ = strconv.Atoi(m[4])
			minute, _ = strconv.Atoi(m[5])
			hasClock = true
		}
	} else {
		return time.Time{}, false
	}

	if day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	if !hasClock {
		hour, minute = morningH, morningM
	}
	if !hasYear {
		year = now.Year()
	}

	res := time.Date(year, month, day, hour, minute, 0, 0, loc)
	if !hasYear && res.Before(now) {
		res = time.Date(year+1, month, day, hour, minute, 0, 0, loc)
	}
	return res, true
}

func monthFromWord(w string) (time.Month, bool) {
	runes := []rune(w)
	if len(runes) < 3 {
		return 0, false
	}
	switch string(runes[:3]) {
	case "янв", "jan":
		return time.January, true
	case "фев", "feb":
		return time.February, true
	case "мар", "mar":
		return time.March, true
	case "апр", "apr":
		return time.April, true
	case "мая", "май", "may":
		return time.May, true
	case "июн", "jun":
		return time.June, true
	case "июл", "jul":
		return time.July, true
	case "авг", "aug":
		return time.August, true
	case "сен", "sep":
		return time.September, true
	case "окт", "oct":
		return time.October, true
	case "ноя", "nov":
		return time.November, true
	case "дек", "dec":
		return time.December, true
	}
	return 0, false
}

func parseHM(hm string, defH, defM int) (int, int) {
	parts := strings.SplitN(hm, ":", 2)
	if len(parts) != 2 {
		return defH, defM
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return defH, defM
	}
	return h, m
}

func normalizeHM(hm, fallback string) string {
	defH, defM := parseHM(fallback, 9, 0)
	h, m := parseHM(hm, defH, defM)
	return fmt.Sprintf("%02d:%02d", h, m)
}
