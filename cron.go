package pastemagic

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

// DateTimeLayout is the display layout shared by the cron and time tools.
const DateTimeLayout = "2006-01-02 15:04:05"

// DefaultCronRuns is the number of fire times listed by NextRuns.
const DefaultCronRuns = 5

var reCronToolField = regexp.MustCompile(`^[\d*,/\-LW#?]+$`)

// IsValidCron reports whether expr has the basic shape of a cron expression:
// 5 fields, or 6 with a leading seconds field.
func IsValidCron(expr string) bool {
	fields := strings.Fields(expr)
	if len(fields) != 5 && len(fields) != 6 {
		return false
	}
	for _, f := range fields {
		if !reCronToolField.MatchString(f) {
			return false
		}
	}
	return true
}

// CronSchedule is the preview of a cron expression.
type CronSchedule struct {
	Expression string   `json:"expression" yaml:"expression" xml:"expression"`
	Runs       []string `json:"runs" yaml:"runs" xml:"runs>run"`
}

// NextRuns lists the next n fire times of expr strictly after from, in
// from's location. n <= 0 selects DefaultCronRuns.
func NextRuns(expr string, from time.Time, n int) (*CronSchedule, error) {
	expr = strings.TrimSpace(expr)
	if !IsValidCron(expr) {
		return nil, fmt.Errorf("%w: %q is not a cron expression", ErrInvalidInput, expr)
	}
	if n <= 0 {
		n = DefaultCronRuns
	}

	normalized := normalizeCron(expr)
	if !gronx.New().IsValid(normalized) {
		return nil, fmt.Errorf("%w: invalid cron %q", ErrInvalidInput, expr)
	}

	sched := &CronSchedule{Expression: expr, Runs: make([]string, 0, n)}
	ref := from
	for i := 0; i < n; i++ {
		next, err := gronx.NextTickAfter(normalized, ref, false)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			break
		}
		sched.Runs = append(sched.Runs, next.In(from.Location()).Format(DateTimeLayout))
		ref = next
	}
	return sched, nil
}

// normalizeCron rewrites a seconds-first six field expression into the seven
// field form (with a trailing year) so the seconds field is never mistaken
// for minutes. "?" is treated as "*".
func normalizeCron(expr string) string {
	fields := strings.Fields(strings.ReplaceAll(expr, "?", "*"))
	if len(fields) == 6 {
		fields = append(fields, "*")
	}
	return strings.Join(fields, " ")
}
