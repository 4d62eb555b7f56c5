// Package notify delivers moderation notices to users over one or more
// channels. Delivery is best effort: callers log failures and move on.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bazaar/backend/pkg/metrics"
)

// Kind classifies a notification.
type Kind string

const (
	KindWarning         Kind = "warning"
	KindSuspension      Kind = "suspension"
	KindListingRemoved  Kind = "listing_removed"
	KindNoAction        Kind = "no_action"
	KindReportDismissed Kind = "report_dismissed"
)

// Notification is a rendered notice addressed to one user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ReportID  string    `json:"report_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// Channel is a named Notifier inside a Fanout.
type Channel struct {
	Name     string
	Notifier Notifier
}

// Fanout delivers to every channel. A failing channel does not stop the
// others; the returned error joins all channel errors.
type Fanout struct {
	channels []Channel
}

func NewFanout(channels ...Channel) *Fanout {
	return &Fanout{channels: channels}
}

// Add appends a channel. Not safe to call concurrently with Notify.
func (f *Fanout) Add(name string, n Notifier) {
	f.channels = append(f.channels, Channel{Name: name, Notifier: n})
}

// Len returns the number of configured channels.
func (f *Fanout) Len() int { return len(f.channels) }

func (f *Fanout) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, ch := range f.channels {
		if err := ch.Notifier.Notify(ctx, n); err != nil {
			metrics.NotificationFailures.WithLabelValues(ch.Name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Discard is a Notifier that drops everything.
var Discard Notifier = NotifierFunc(func(context.Context, Notification) error { return nil })
