package events

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker(4)
	first, unsubFirst := b.Subscribe()
	second, unsubSecond := b.Subscribe()
	defer unsubSecond()

	b.Publish(context.Background(), New(PostCreated, "p-1"))

	assert.Equal(t, PostCreated, receive(t, first).Type)
	assert.Equal(t, "p-1", receive(t, second).PostID)

	unsubFirst()
	unsubFirst()
	assert.Equal(t, 1, b.Subscribers())

	_, ok := <-first
	assert.False(t, ok)
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker(1)
	ch, unsub := b.Subscribe()
	defer unsub()

	b.Publish(context.Background(), New(LikeChanged, "p-1"))
	b.Publish(context.Background(), New(LikeChanged, "p-2"))

	assert.Equal(t, "p-1", receive(t, ch).PostID)
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %+v", e)
	default:
	}
}

func TestRedisRelayDeliver(t *testing.T) {
	b := NewBroker(4)
	ch, unsub := b.Subscribe()
	defer unsub()

	relay := NewRedisRelay(nil, "feed-events", b)
	relay.deliver(context.Background(), `{"type":"comment.created","postId":"p-9","at":"2025-03-14T09:00:00Z"}`)
	relay.deliver(context.Background(), `not json`)

	e := receive(t, ch)
	assert.Equal(t, CommentCreated, e.Type)
	assert.Equal(t, "p-9", e.PostID)
	assert.Equal(t, 0, len(ch))
}

func TestRedisRelayFallsBackToLocal(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	b := NewBroker(4)
	ch, unsub := b.Subscribe()
	defer unsub()

	NewRedisRelay(client, "feed-events", b).Publish(context.Background(), New(PostDeleted, "p-3"))

	e := receive(t, ch)
	require.Equal(t, PostDeleted, e.Type)
	assert.Equal(t, "p-3", e.PostID)
}

func TestBrokerClose(t *testing.T) {
	b := NewBroker(1)
	ch, unsub := b.Subscribe()

	b.Close()
	_, ok := <-ch
	assert.False(t, ok)
	unsub()

	late, _ := b.Subscribe()
	_, ok = <-late
	assert.False(t, ok)

	b.Publish(context.Background(), New(PostCreated, "p-1"))
	assert.Zero(t, b.Subscribers())
}

func TestStartRelayKeepsLocalBrokerWhenSubscribeFails(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	b := NewBroker(4)
	ch, unsub := b.Subscribe()
	defer unsub()

	publisher, err := StartRelay(context.Background(), client, "feed-events", b)
	require.Error(t, err)
	assert.Same(t, b, publisher)

	publisher.Publish(context.Background(), New(PostCreated, "p-1"))
	assert.Equal(t, "p-1", receive(t, ch).PostID)
}
