package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// periodRe matches "2016-Q3" and the legacy "2016 Q3" spelling.
var periodRe = regexp.MustCompile(`^(\d{4})\s*(?:-|\s)\s*Q([1-4])$`)

// Period identifies a calendar quarter.
type Period struct {
	Year    int
	Quarter int
}

// ParsePeriod parses a period label such as "2016-Q3" or "2016 Q3".
func ParsePeriod(s string) (Period, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	matches := periodRe.FindStringSubmatch(s)
	if len(matches) != 3 {
		return Period{}, fmt.Errorf("parse period %q: %w", s, ErrInvalidInput)
	}
	year, err := strconv.Atoi(matches[1])
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", s, ErrInvalidInput)
	}
	quarter, _ := strconv.Atoi(matches[2])
	return Period{Year: year, Quarter: quarter}, nil
}

// PeriodOf returns the quarter containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Quarter: (int(t.Month())-1)/3 + 1}
}

// String renders the canonical "YYYY-Qn" label.
func (p Period) String() string {
	return fmt.Sprintf("%d-Q%d", p.Year, p.Quarter)
}

// Before reports whether p is chronologically earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Quarter < o.Quarter
}

// Start returns the first day of the quarter in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month((p.Quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
}

// Months returns the three calendar months of the quarter.
func (p Period) Months() [3]time.Month {
	first := time.Month((p.Quarter-1)*3 + 1)
	return [3]time.Month{first, first + 1, first + 2}
}

// MarshalText implements encoding.TextMarshaler so periods serialize as labels.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
