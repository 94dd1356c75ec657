package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gradx-api/internal/models"
	"github.com/noah-isme/gradx-api/internal/observability"
)

const (
	notificationBufferSize = 16
	// DefaultNotificationTTL is how long a notification stays visible.
	DefaultNotificationTTL = 3000 * time.Millisecond
)

// NotificationEventType distinguishes a newly shown notification from an expired one.
type NotificationEventType string

const (
	NotificationShown     NotificationEventType = "shown"
	NotificationDismissed NotificationEventType = "dismissed"
)

// NotificationEvent is delivered to stream subscribers.
type NotificationEvent struct {
	Type         NotificationEventType `json:"type"`
	Notification models.Notification   `json:"notification"`
}

// NotificationQueue holds at most one visible acknowledgement; the latest one wins.
type NotificationQueue interface {
	Notify(ctx context.Context, kind models.NotificationKind, subject string) (models.Notification, error)
	Current() (models.Notification, bool)
	Subscribe() (<-chan NotificationEvent, func())
}

type notificationQueue struct {
	mu          sync.Mutex
	current     *models.Notification
	timer       *time.Timer
	ttl         time.Duration
	broker      *notificationBroker
	nats        *nats.Conn
	natsSubject string
	nodeID      string
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[chan NotificationEvent]struct{}
}

type notificationEnvelope struct {
	Source string            `json:"source"`
	Event  NotificationEvent `json:"event"`
	SentAt time.Time         `json:"sent_at"`
}

// NewNotificationQueue constructs a queue whose notifications expire after ttl. A nil NATS
// connection disables fan-out to other processes.
func NewNotificationQueue(ttl time.Duration, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) NotificationQueue {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	subject := ""
	if channelBase != "" {
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationQueue{
		ttl:         ttl,
		broker:      &notificationBroker{subscribers: make(map[chan NotificationEvent]struct{})},
		nats:        natsConn,
		natsSubject: subject,
		nodeID:      uuid.NewString(),
		logger:      logger.With().Str("component", "notification_queue").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gradx-api/internal/service/notification"),
		now:         time.Now,
	}
}

func (q *notificationQueue) Notify(ctx context.Context, kind models.NotificationKind, subject string) (models.Notification, error) {
	title, message, err := notificationText(kind, subject)
	if err != nil {
		return models.Notification{}, err
	}

	_, span := q.tracer.Start(ctx, "notifications.notify", trace.WithAttributes(
		attribute.String("notification.kind", string(kind)),
	))
	defer span.End()

	now := q.now()
	notification := models.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(q.ttl),
	}

	q.mu.Lock()
	if q.timer != nil {
		q.timer.Stop()
	}
	q.current = &notification
	id := notification.ID
	q.timer = time.AfterFunc(q.ttl, func() { q.expire(id) })
	q.mu.Unlock()

	observability.Notifications().WithLabelValues(string(kind)).Inc()
	event := NotificationEvent{Type: NotificationShown, Notification: notification}
	q.broker.broadcast(event)
	if err := q.publish(event); err != nil {
		q.logger.Warn().Err(err).Msg("failed to publish notification to broker")
	}

	return notification, nil
}

func (q *notificationQueue) Current() (models.Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current == nil {
		return models.Notification{}, false
	}
	if !q.now().Before(q.current.ExpiresAt) {
		return models.Notification{}, false
	}
	return *q.current, true
}

func (q *notificationQueue) Subscribe() (<-chan NotificationEvent, func()) {
	channel := make(chan NotificationEvent, notificationBufferSize)

	q.broker.subscribe(channel)
	observability.SSEClientsActive().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			q.broker.unsubscribe(channel)
			observability.SSEClientsActive().Dec()
		})
	}

	return channel, cleanup
}

func (q *notificationQueue) expire(id string) {
	q.mu.Lock()
	if q.current == nil || q.current.ID != id {
		q.mu.Unlock()
		return
	}
	expired := *q.current
	q.current = nil
	q.timer = nil
	q.mu.Unlock()

	q.broker.broadcast(NotificationEvent{Type: NotificationDismissed, Notification: expired})
}

func (q *notificationQueue) publish(event NotificationEvent) error {
	if q.nats == nil || q.natsSubject == "" {
		return nil
	}

	payload, err := json.Marshal(notificationEnvelope{
		Source: q.nodeID,
		Event:  event,
		SentAt: q.now().UTC(),
	})
	if err != nil {
		return err
	}
	return q.nats.Publish(q.natsSubject, payload)
}

func notificationText(kind models.NotificationKind, subject string) (string, string, error) {
	switch kind {
	case models.NotificationAccepted:
		name := strings.TrimSpace(subject)
		if name == "" {
			name = "Unknown"
		}
		return "Grade Accepted", fmt.Sprintf("Student identified as %s.", name), nil
	case models.NotificationSubmitted:
		return "Grade Submitted", "Result has been finalized.", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownNotificationKind, kind)
	}
}

func (b *notificationBroker) subscribe(ch chan NotificationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(ch chan NotificationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *notificationBroker) broadcast(event NotificationEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
