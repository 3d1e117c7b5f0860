package lifecycle

import "fmt"

// Status enumerates the event lifecycle states.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = map[Status]struct{}{
	StatusDraft:      {},
	StatusScheduled:  {},
	StatusInProgress: {},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// ParseStatus maps a store encoding back to a Status, rejecting unknown
// strings.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := allStatuses[status]; !ok {
		return "", fmt.Errorf("lifecycle: unknown status %q", s)
	}
	return status, nil
}

// Priority enumerates event priorities.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var allPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
	PriorityUrgent: {},
}

// ParsePriority maps a store encoding back to a Priority, rejecting
// unknown strings.
func ParsePriority(s string) (Priority, error) {
	priority := Priority(s)
	if _, ok := allPriorities[priority]; !ok {
		return "", fmt.Errorf("lifecycle: unknown priority %q", s)
	}
	return priority, nil
}
