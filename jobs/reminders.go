package jobs

import (
	"context"
	"time"

	"github.com/tessera-hq/tessera/internal/events"
)

// DefaultReminderLead is how far before the event start the reminder fires.
const DefaultReminderLead = time.Hour

// ReminderScheduler adapts the queue client to the events reminder port.
type ReminderScheduler struct {
	Client *Client
	Lead   time.Duration
}

// ScheduleReminder enqueues a reminder task timed against the event start.
func (r ReminderScheduler) ScheduleReminder(ctx context.Context, event events.Event) error {
	lead := r.Lead
	if lead <= 0 {
		lead = DefaultReminderLead
	}
	at := event.Start.Add(-lead)
	if at.Before(time.Now()) {
		at = time.Now()
	}
	_, err := r.Client.EnqueueEventReminder(ctx, ReminderPayload{
		EventID: event.ID,
		Title:   event.Title,
		Start:   event.Start,
	}, at)
	return err
}
