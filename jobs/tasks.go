package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendInvite is the task type for sending stakeholder invitations.
	TaskTypeSendInvite = "mail:invite"
	// TaskTypeEventReminder is the task type for scheduled event reminders.
	TaskTypeEventReminder = "event:reminder"
	// TaskTypeLinksSweep is the task type for the link consistency sweep.
	TaskTypeLinksSweep = "links:sweep"
)

// InvitePayload describes the information required to invite a stakeholder.
type InvitePayload struct {
	To          string `json:"to"`
	DisplayName string `json:"display_name"`
}

// NewSendInviteTask constructs an Asynq task.
func NewSendInviteTask(payload InvitePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendInvite, data), nil
}

// HandleSendInviteTask processes TaskTypeSendInvite tasks.
func HandleSendInviteTask(ctx context.Context, t *asynq.Task) error {
	var payload InvitePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: hand over to SMTP delivery once the mail gateway lands.
	slog.Info("stakeholder invite dispatched",
		slog.String("to", payload.To),
		slog.String("display_name", payload.DisplayName))
	return nil
}

// ReminderPayload carries the event details for a reminder notification.
type ReminderPayload struct {
	EventID string    `json:"event_id"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start"`
}

// NewEventReminderTask constructs an Asynq task.
func NewEventReminderTask(payload ReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeEventReminder, data), nil
}

// HandleEventReminderTask processes TaskTypeEventReminder tasks.
func HandleEventReminderTask(ctx context.Context, t *asynq.Task) error {
	var payload ReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	slog.Info("event reminder due",
		slog.String("event_id", payload.EventID),
		slog.String("title", payload.Title),
		slog.Time("start", payload.Start))
	return nil
}

// NewLinksSweepTask constructs the consistency sweep task.
func NewLinksSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeLinksSweep, nil)
}
