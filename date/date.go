package date

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date with an optional time of day. All dates are kept
// in UTC, so two dates compare by their wall-clock values only.
type Date struct {
	tm      time.Time
	hasTime bool
}

const (
	isoLayout     = "2006-01-02"
	isoTimeLayout = "2006-01-02 15:04:05"
)

func New(year int, month time.Month, day int) Date {
	return Date{tm: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime converts t to a Date, keeping the time of day if it is not
// midnight.
func FromTime(t time.Time) Date {
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	hasTime := t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0
	return Date{tm: t, hasTime: hasTime}
}

func (d Date) Year() int          { return d.tm.Year() }
func (d Date) Month() time.Month  { return d.tm.Month() }
func (d Date) Day() int           { return d.tm.Day() }
func (d Date) Time() time.Time    { return d.tm }
func (d Date) HasTime() bool      { return d.hasTime }
func (d Date) IsZero() bool       { return d.tm.IsZero() }
func (d Date) Before(o Date) bool { return d.tm.Before(o.tm) }
func (d Date) After(o Date) bool  { return d.tm.After(o.tm) }
func (d Date) Equal(o Date) bool  { return d.tm.Equal(o.tm) }

// Compare returns -1, 0 or 1, for use with sort functions.
func (d Date) Compare(o Date) int {
	switch {
	case d.tm.Before(o.tm):
		return -1
	case d.tm.After(o.tm):
		return 1
	}
	return 0
}

// WithClock returns d at the given time of day.
func (d Date) WithClock(hour, min, sec, msec int) Date {
	tm := time.Date(d.Year(), d.Month(), d.Day(), hour, min, sec, msec*int(time.Millisecond), time.UTC)
	return Date{tm: tm, hasTime: true}
}

func (d Date) String() string {
	if d.hasTime {
		return d.tm.Format(isoTimeLayout)
	}
	return d.tm.Format(isoLayout)
}

// FinancialYear returns the label of the Australian financial year
// (1 July to 30 June) containing d. The label is the starting calendar year,
// so 2023-06-30 is in 2022 and 2023-07-01 is in 2023.
func (d Date) FinancialYear() int {
	if d.Month() >= time.July {
		return d.Year()
	}
	return d.Year() - 1
}

// FinancialYearLabel renders a financial year label as "2022-2023".
func FinancialYearLabel(year int) string {
	return fmt.Sprintf("%d-%d", year, year+1)
}

// HeldTwelveMonths reports whether an asset opened on open and closed on
// close was held for at least twelve months, by comparing the year, month and
// day fields. It deliberately mirrors the calendar-field test used for the
// capital gains discount, so a month gap of one with an earlier close day is
// not eligible even across a month end.
func HeldTwelveMonths(open, close Date) bool {
	yearGap := close.Year() - open.Year()
	switch {
	case yearGap <= 0:
		return false
	case yearGap > 1:
		return true
	}
	if close.Month() < open.Month() {
		return false
	}
	if close.Month()-open.Month() > 1 {
		return true
	}
	return close.Day() >= open.Day()
}

// Parse accepts day-first slash dates (15/02/2023), ISO dates (2023-02-15),
// ISO dates with a time, and RFC 3339 timestamps.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		return parseDayFirst(s, "/")
	}
	for _, layout := range []string{isoLayout, isoTimeLayout, time.RFC3339} {
		if tm, err := time.Parse(layout, s); err == nil {
			return FromTime(tm), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date format: %q", s)
}

// ParseDayFirst parses a dd<sep>mm<sep>yyyy date.
func ParseDayFirst(s string, sep string) (Date, error) {
	return parseDayFirst(strings.TrimSpace(s), sep)
}

func parseDayFirst(s string, sep string) (Date, error) {
	tokens := strings.Split(s, sep)
	if len(tokens) != 3 {
		return Date{}, fmt.Errorf("invalid date format: %q", s)
	}
	var parts [3]int
	for i, tok := range tokens {
		v, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return Date{}, fmt.Errorf("invalid date format: %q", s)
		}
		parts[i] = v
	}
	day, month, year := parts[0], parts[1], parts[2]
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, fmt.Errorf("invalid date: %q", s)
	}
	d := New(year, time.Month(month), day)
	if d.Day() != day {
		return Date{}, fmt.Errorf("invalid date: %q", s)
	}
	return d, nil
}

// ParseClock parses a time of day such as "13:05:09", "1:05:09 pm" or
// "13:05:09 250" (trailing milliseconds).
func ParseClock(s string) (hour, min, sec, msec int, err error) {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ':' || r == ' ' || r == '\t' || r == '.'
	})
	if len(fields) < 3 {
		return 0, 0, 0, 0, fmt.Errorf("invalid time format: %q", s)
	}
	var vals [3]int
	for i := 0; i < 3; i++ {
		if vals[i], err = strconv.Atoi(fields[i]); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid time format: %q", s)
		}
	}
	hour, min, sec = vals[0], vals[1], vals[2]
	if len(fields) > 3 {
		tok := strings.ToLower(fields[3])
		switch {
		case tok[0] >= '0' && tok[0] <= '9':
			if msec, err = strconv.Atoi(tok); err != nil {
				return 0, 0, 0, 0, fmt.Errorf("invalid time format: %q", s)
			}
		case tok == "pm":
			if hour < 12 {
				hour += 12
			}
		case tok == "am":
			if hour == 12 {
				hour = 0
			}
		}
	}
	if hour > 23 || min > 59 || sec > 59 {
		return 0, 0, 0, 0, fmt.Errorf("invalid time: %q", s)
	}
	return hour, min, sec, msec, nil
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}
