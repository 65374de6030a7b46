package pastemagic

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeInputType records how a time input was read.
type TimeInputType string

const (
	TimeFromSeconds      TimeInputType = "timestamp-s"
	TimeFromMilliseconds TimeInputType = "timestamp-ms"
	TimeFromDate         TimeInputType = "date-string"
)

// TimeInfo is the time tool's view of one instant.
type TimeInfo struct {
	Input        string        `json:"input" yaml:"input" xml:"input"`
	Type         TimeInputType `json:"type" yaml:"type" xml:"type"`
	Formatted    string        `json:"formatted" yaml:"formatted" xml:"formatted"`
	Seconds      int64         `json:"seconds" yaml:"seconds" xml:"seconds"`
	Milliseconds int64         `json:"milliseconds" yaml:"milliseconds" xml:"milliseconds"`
}

// Date layouts accepted by ParseTime, tried in order. Layouts without a zone
// are read in the caller's location.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	DateTimeLayout,
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseTime reads a 10 digit (seconds) or 13 digit (milliseconds) timestamp,
// or a date string, and renders it in loc.
func ParseTime(input string, loc *time.Location) (*TimeInfo, error) {
	s := strings.TrimSpace(input)
	if loc == nil {
		loc = time.Local
	}

	if reDigits.MatchString(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		var t time.Time
		info := &TimeInfo{Input: s}
		switch len(s) {
		case 10:
			t = time.Unix(n, 0)
			info.Type = TimeFromSeconds
		case 13:
			t = time.UnixMilli(n)
			info.Type = TimeFromMilliseconds
		default:
			return nil, fmt.Errorf("%w: timestamps have 10 or 13 digits, got %d", ErrInvalidInput, len(s))
		}
		fillTimeInfo(info, t.In(loc))
		return info, nil
	}

	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			info := &TimeInfo{Input: s, Type: TimeFromDate}
			fillTimeInfo(info, t.In(loc))
			return info, nil
		}
	}

	return nil, fmt.Errorf("%w: cannot read %q as a time", ErrInvalidInput, s)
}

func fillTimeInfo(info *TimeInfo, t time.Time) {
	info.Formatted = t.Format(DateTimeLayout)
	info.Seconds = t.Unix()
	info.Milliseconds = t.UnixMilli()
}

// Clock is the live clock shown next to every time result.
type Clock struct {
	Formatted    string `json:"formatted" yaml:"formatted" xml:"formatted"`
	Seconds      int64  `json:"seconds" yaml:"seconds" xml:"seconds"`
	Milliseconds int64  `json:"milliseconds" yaml:"milliseconds" xml:"milliseconds"`
}

// Now snapshots t as "YYYY-MM-DD HH:MM:SS.mmm" plus both timestamps.
func Now(t time.Time) Clock {
	return Clock{
		Formatted:    t.Format("2006-01-02 15:04:05.000"),
		Seconds:      t.Unix(),
		Milliseconds: t.UnixMilli(),
	}
}
