package broadcast

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBroadcaster() *Broadcaster {
	return NewBroadcaster(16, zap.NewNop().Sugar())
}

func TestPublishFanOut(t *testing.T) {
	b := newTestBroadcaster()

	sub1 := b.Subscribe(TopicGlobal)
	sub2 := b.Subscribe(TopicGlobal)
	other := b.Subscribe(TopicSOS("abc"))

	b.Publish(TopicGlobal, KindRequestCreated, "req-1", nil)

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case ev := <-sub.Events():
			assert.Equal(t, KindRequestCreated, ev.Kind)
			assert.Equal(t, "req-1", ev.EntityID)
			assert.False(t, ev.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("expected event on global subscriber")
		}
	}

	select {
	case <-other.Events():
		t.Fatal("sos topic subscriber must not receive global events")
	default:
	}
}

func TestPublishNoSubscribersIsNoop(t *testing.T) {
	b := newTestBroadcaster()
	b.Publish(TopicCrisis("nobody"), KindCrisisUpdate, "c-1", nil)
}

func TestFIFOPerSubscriber(t *testing.T) {
	b := newTestBroadcaster()
	sub := b.Subscribe(TopicSOS("req-1"))

	for i := 0; i < 10; i++ {
		b.Publish(TopicSOS("req-1"), KindStatusChanged, "req-1", i)
	}

	for i := 0; i < 10; i++ {
		ev := <-sub.Events()
		assert.Equal(t, i, ev.Payload)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	b := newTestBroadcaster()
	sub := b.Subscribe(TopicGlobal)

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	b.Unsubscribe(nil)

	assert.Zero(t, b.SubscriberCount(TopicGlobal))

	_, open := <-sub.Events()
	assert.False(t, open)

	// Publishing after unsubscribe must not panic.
	b.Publish(TopicGlobal, KindStatusChanged, "req-1", nil)
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroadcaster(1, zap.NewNop().Sugar())
	sub := b.Subscribe(TopicGlobal)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(TopicGlobal, KindStatusChanged, "req-1", i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// First event is retained, the rest were dropped.
	ev := <-sub.Events()
	assert.Equal(t, 0, ev.Payload)
}

func TestConcurrentSubscribePublishUnsubscribe(t *testing.T) {
	b := newTestBroadcaster()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			topic := TopicCrisis(fmt.Sprintf("c-%d", n%3))
			for j := 0; j < 50; j++ {
				sub := b.Subscribe(topic)
				b.Unsubscribe(sub)
			}
		}(i)
		go func(n int) {
			defer wg.Done()
			topic := TopicCrisis(fmt.Sprintf("c-%d", n%3))
			for j := 0; j < 50; j++ {
				b.Publish(topic, KindCrisisUpdate, "c", j)
			}
		}(i)
	}
	wg.Wait()
}

func TestValidTopic(t *testing.T) {
	require.True(t, validTopic("global"))
	require.True(t, validTopic("crisis:abc"))
	require.True(t, validTopic("sos:abc"))
	require.False(t, validTopic("crisis:"))
	require.False(t, validTopic("bogus"))
	require.False(t, validTopic(""))
}
