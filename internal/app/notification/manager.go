// Package notification provides the notification manager for broadcasting
// playback snapshots to watchers.
package notification

import (
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/beatdeck/beatdeck/internal/app/playback"
)

// Notification is a numbered snapshot delivered to a subscriber.
type Notification struct {
	SequenceNo uint64
	Snapshot   playback.Snapshot
}

// subscription represents a subscriber's subscription.
// The mailbox holds at most one pending notification; a newer one replaces it.
type subscription struct {
	id      string
	mailbox chan Notification
}

// Manager manages notification subscriptions and broadcasting.
// It implements playback.Publisher.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	latest        *Notification
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a new subscription and returns its ID and delivery channel.
// The latest snapshot, if any, is delivered immediately.
func (m *Manager) Subscribe() (string, <-chan Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	sub := &subscription{
		id:      id,
		mailbox: make(chan Notification, 1),
	}
	if m.latest != nil {
		sub.mailbox <- *m.latest
	}
	m.subscriptions[id] = sub

	zlog.Debug().Msgf("notification: subscribed: id=%s subscribers=%d", id, len(m.subscriptions))
	return id, sub.mailbox
}

// Unsubscribe removes a subscription and closes its channel.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subscriptions[subscriptionID]
	if !ok {
		return
	}
	delete(m.subscriptions, subscriptionID)
	close(sub.mailbox)
}

// Publish broadcasts a snapshot to all subscribers without blocking.
// A subscriber that has not consumed the previous snapshot only sees the newest.
func (m *Manager) Publish(snap playback.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sequenceNo++
	n := Notification{SequenceNo: m.sequenceNo, Snapshot: snap}
	m.latest = &n

	for _, sub := range m.subscriptions {
		select {
		case <-sub.mailbox:
		default:
		}
		sub.mailbox <- n
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes the manager and removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, sub := range m.subscriptions {
		close(sub.mailbox)
		delete(m.subscriptions, id)
	}
}
