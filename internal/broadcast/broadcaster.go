package broadcast

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Topic names. Events fan out to live subscribers only; the repositories
// remain the source of truth and clients reconcile by re-fetching.
const TopicGlobal = "global"

func TopicCrisis(id string) string { return "crisis:" + id }
func TopicSOS(id string) string    { return "sos:" + id }

// Event kinds published by the services.
const (
	KindRequestCreated        = "requestCreated"
	KindStatusChanged         = "statusChanged"
	KindAssigned              = "assigned"
	KindTeamLocation          = "teamLocation"
	KindShelterCapacityUpdate = "shelterCapacityUpdate"
	KindCrisisUpdate          = "crisisUpdate"
	KindStatistics            = "statistics"
)

type Event struct {
	Kind      string      `json:"eventKind"`
	EntityID  string      `json:"entityId"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Subscription is a handle to one subscriber's stream for a single topic.
type Subscription struct {
	topic  string
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

// Events delivers this subscription's stream in publish order.
func (s *Subscription) Events() <-chan Event { return s.ch }

func (s *Subscription) Topic() string { return s.topic }

// send is non-blocking; it reports false when the event was dropped or the
// subscription already closed. The lock serializes against close so a publish
// holding a stale snapshot never writes to a closed channel.
func (s *Subscription) send(e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- e:
		return true
	default:
		return false
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
}

// Broadcaster is a concurrency-safe topic registry. Delivery is best-effort:
// a subscriber whose buffer is full loses the event rather than blocking the
// publisher.
type Broadcaster struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	buffer int
	logger *zap.SugaredLogger
}

func NewBroadcaster(buffer int, logger *zap.SugaredLogger) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{
		topics: make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

func (b *Broadcaster) Subscribe(topic string) *Subscription {
	sub := &Subscription{topic: topic, ch: make(chan Event, b.buffer)}

	b.mu.Lock()
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe is idempotent and closes the subscription's channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	subs, ok := b.topics[sub.topic]
	if ok {
		if _, member := subs[sub]; member {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(b.topics, sub.topic)
			}
		}
	}
	b.mu.Unlock()

	sub.close()
}

// Publish fans an event out to every live subscription on the topic.
// Publishing to a topic with no subscribers is a no-op. The subscriber set is
// snapshotted under the read lock so concurrent subscribe/unsubscribe cannot
// corrupt delivery to unrelated subscribers.
func (b *Broadcaster) Publish(topic, kind, entityID string, payload interface{}) {
	event := Event{
		Kind:      kind,
		EntityID:  entityID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	b.mu.RLock()
	subs := b.topics[topic]
	snapshot := make([]*Subscription, 0, len(subs))
	for sub := range subs {
		snapshot = append(snapshot, sub)
	}
	b.mu.RUnlock()

	for _, sub := range snapshot {
		if !sub.send(event) {
			if b.logger != nil {
				b.logger.Warnf("Dropping %s event on topic %s: slow or closed subscriber", kind, topic)
			}
		}
	}
}

// SubscriberCount reports live subscriptions, used by tests and metrics.
func (b *Broadcaster) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
