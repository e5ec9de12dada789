package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"initiativehub/models"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"1-2-2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
}

var monthLayouts = []string{"Jan 2006", "January 2006", "Jan-2006", "2006-01"}

var (
	shortYearDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2})$`)
	quarterDate   = regexp.MustCompile(`(?i)^(?:q([1-4])[\s'/-]*(\d{2}|\d{4})|(\d{4})[\s/-]*q([1-4]))$`)
	ordinalSuffix = regexp.MustCompile(`(?i)(\d)(st|nd|rd|th)\b`)
)

// ParseDate understands the date spellings common in pasted spreadsheets.
// Two-digit years are resolved against now: up to twenty years ahead of now
// they are 20yy, otherwise 19yy. "Jan 2026" is the first of the month and
// "Q2 2026" the last day of the quarter.
func ParseDate(s string, now time.Time) (models.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Date{}, fmt.Errorf("empty date")
	}
	s = ordinalSuffix.ReplaceAllString(s, "$1")

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOf(t), nil
		}
	}

	if m := shortYearDate.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		yy, _ := strconv.Atoi(m[3])
		return calendarDate(expandYear(yy, now), month, day, s)
	}

	if m := quarterDate.FindStringSubmatch(s); m != nil {
		q, year := m[1], m[2]
		if q == "" {
			q, year = m[4], m[3]
		}
		quarter, _ := strconv.Atoi(q)
		y, _ := strconv.Atoi(year)
		if len(year) == 2 {
			y = expandYear(y, now)
		}
		// day 0 of the month after the quarter is its last day
		return models.DateOf(time.Date(y, time.Month(quarter*3+1), 0, 0, 0, 0, 0, time.UTC)), nil
	}

	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOf(t), nil
		}
	}

	return models.Date{}, fmt.Errorf("unrecognized date %q", s)
}

func expandYear(yy int, now time.Time) int {
	if yy <= now.Year()%100+20 {
		return 2000 + yy
	}
	return 1900 + yy
}

func calendarDate(year, month, day int, raw string) (models.Date, error) {
	if month < 1 || month > 12 || day < 1 {
		return models.Date{}, fmt.Errorf("unrecognized date %q", raw)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return models.Date{}, fmt.Errorf("day out of range in %q", raw)
	}
	return models.DateOf(t), nil
}
