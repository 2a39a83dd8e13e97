package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// ActivityType classifies an ActivityEvent.
type ActivityType string

const (
	ActivityRegistered  ActivityType = "user.registered"
	ActivityUpdated     ActivityType = "user.updated"
	ActivityDeleted     ActivityType = "user.deleted"
	ActivityListAdded   ActivityType = "list.added"
	ActivityListRemoved ActivityType = "list.removed"
)

// ActivityEvent is published after a user-facing mutation succeeds.
type ActivityEvent struct {
	Type   ActivityType `json:"type"`
	UserID string       `json:"userId"`
	List   string       `json:"list,omitempty"`
	ItemID string       `json:"itemId,omitempty"`
	At     time.Time    `json:"at"`
}

// Publisher is the transport activity events are sent through.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Activity publishes ActivityEvents. A nil *Activity, or one without a
// publisher, drops every event.
type Activity struct {
	pub     Publisher
	channel string
	log     logrus.FieldLogger
}

func NewActivity(pub Publisher, channel string, log logrus.FieldLogger) *Activity {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Activity{pub: pub, channel: channel, log: log}
}

// Record publishes event. Failures are logged and never returned: activity is
// best effort and must not fail the request that produced it.
func (a *Activity) Record(ctx context.Context, event ActivityEvent) {
	if a == nil || a.pub == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	entry := a.log.WithFields(logrus.Fields{
		"channel": a.channel,
		"type":    event.Type,
		"user_id": event.UserID,
	})

	data, err := json.Marshal(event)
	if err != nil {
		entry.WithError(err).Warn("encode activity event")
		return
	}

	attrs := map[string]string{"type": string(event.Type), "content_type": "application/json"}
	if _, err := a.pub.Publish(ctx, a.channel, data, attrs); err != nil {
		entry.WithError(err).Warn("publish activity event")
	}
}
