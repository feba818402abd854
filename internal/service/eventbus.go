package service

import (
	"sync"

	"github.com/bnema/audiochunk/internal/domain"
)

// Event is a job state change as seen by subscribers.
type Event struct {
	JobID   string
	State   domain.JobState
	Message string
	Outputs []domain.Output
}

// Terminal reports whether no further events follow for the job.
func (e Event) Terminal() bool {
	return e.State.IsTerminal()
}

type EventPublisher interface {
	Publish(jobID string, event Event)
}

type EventBus struct {
	subscribers map[string][]chan Event
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan Event),
	}
}

func (eb *EventBus) Subscribe(jobID string) chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan Event, 16)
	eb.subscribers[jobID] = append(eb.subscribers[jobID], ch)
	return ch
}

func (eb *EventBus) Unsubscribe(jobID string, ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.subscribers[jobID]
	for i, sub := range subs {
		if sub == ch {
			eb.subscribers[jobID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}

	if len(eb.subscribers[jobID]) == 0 {
		delete(eb.subscribers, jobID)
	}
}

// Publish never blocks; a subscriber whose buffer is full misses the event.
func (eb *EventBus) Publish(jobID string, event Event) {
	event.JobID = jobID

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, ch := range eb.subscribers[jobID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount reports open subscriptions across all jobs.
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	n := 0
	for _, subs := range eb.subscribers {
		n += len(subs)
	}
	return n
}
