// Package lifecycle validates event state transitions, time ranges and
// field contents. Business-rule violations are values, not errors: every
// validator returns a Result whose message is safe to surface to the end
// user verbatim.
package lifecycle

import (
	"net/url"
	"time"
	"unicode"
)

// Result is the outcome of a validation check.
type Result struct {
	Valid   bool
	Message string
}

// OK is the passing result.
var OK = Result{Valid: true}

func fail(message string) Result {
	return Result{Message: message}
}

// Duration bounds for an event.
const (
	MinDuration = 5 * time.Minute
	MaxDuration = 30 * 24 * time.Hour
)

// ValidateTransition checks whether an event may move between statuses.
// Transitions are permissive by default, including a status to itself;
// only reopening a completed event as a draft and starting a cancelled
// event are forbidden.
func ValidateTransition(current, target Status) Result {
	if current == StatusCompleted && target == StatusDraft {
		return fail("cannot revert a completed event to draft")
	}
	if current == StatusCancelled && target == StatusInProgress {
		return fail("cannot start a cancelled event")
	}
	return OK
}

// ValidateTimeRange checks the event time range. Both duration bounds
// are inclusive: exactly five minutes and exactly thirty days pass.
func ValidateTimeRange(start, end time.Time) Result {
	if !end.After(start) {
		return fail("end time must be after start time")
	}
	duration := end.Sub(start)
	if duration < MinDuration {
		return fail("event must be at least 5 minutes long")
	}
	if duration > MaxDuration {
		return fail("event cannot be longer than 30 days")
	}
	return OK
}

// CanEdit reports whether an event in the given status accepts edits.
// Completed and cancelled events are immutable.
func CanEdit(status Status) Result {
	if status == StatusCompleted || status == StatusCancelled {
		return fail("finished events cannot be edited")
	}
	return OK
}

// CanDelete reports whether an event in the given status may be deleted.
func CanDelete(status Status) Result {
	if status == StatusInProgress {
		return fail("an event in progress cannot be deleted")
	}
	return OK
}

// ValidateTitle checks the event title: 3 to 100 characters, starting
// with a letter or digit.
func ValidateTitle(title string) Result {
	runes := []rune(title)
	if len(runes) < 3 {
		return fail("title must be at least 3 characters")
	}
	if len(runes) > 100 {
		return fail("title cannot exceed 100 characters")
	}
	if !unicode.IsLetter(runes[0]) && !unicode.IsDigit(runes[0]) {
		return fail("title must start with a letter or digit")
	}
	return OK
}

// ValidateDescription checks the optional description, up to 500 characters.
func ValidateDescription(description string) Result {
	if len([]rune(description)) > 500 {
		return fail("description cannot exceed 500 characters")
	}
	return OK
}

// ValidateLocationName checks a physical location name, 2 to 200 characters.
func ValidateLocationName(name string) Result {
	runes := []rune(name)
	if len(runes) < 2 {
		return fail("location name must be at least 2 characters")
	}
	if len(runes) > 200 {
		return fail("location name cannot exceed 200 characters")
	}
	return OK
}

// ValidateVirtualLink checks an optional meeting URL. Empty is allowed;
// anything else must be an absolute http or https URL.
func ValidateVirtualLink(link string) Result {
	if link == "" {
		return OK
	}
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" {
		return fail("virtual link must be a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fail("virtual link must use http or https")
	}
	return OK
}
