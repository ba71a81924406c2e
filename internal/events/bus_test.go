package events

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codewithbrain/internal/models"
)

func TestTopicPublishOrder(t *testing.T) {
	var topic Topic[UserSaved]
	var got []string

	topic.Subscribe(func(ctx context.Context, ev UserSaved) { got = append(got, "first:"+ev.User.Username) })
	topic.Subscribe(func(ctx context.Context, ev UserSaved) { got = append(got, "second:"+ev.User.Username) })

	topic.Publish(context.Background(), UserSaved{User: &models.User{Username: "ann"}, Created: true})

	assert.Equal(t, []string{"first:ann", "second:ann"}, got)
	assert.Equal(t, 2, topic.Len())
}

func TestTopicPublishWithoutSubscribers(t *testing.T) {
	var topic Topic[LoggedOut]
	assert.NotPanics(t, func() {
		topic.Publish(context.Background(), LoggedOut{})
	})
}

func TestTopicRecoversHandlerPanic(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus(slog.New(slog.NewTextHandler(&buf, nil)))

	var reached bool
	bus.LoginFailed.Subscribe(func(ctx context.Context, ev LoginFailed) { panic("boom") })
	bus.LoginFailed.Subscribe(func(ctx context.Context, ev LoginFailed) { reached = true })

	require.NotPanics(t, func() {
		bus.LoginFailed.Publish(context.Background(), LoginFailed{})
	})
	assert.True(t, reached, "later handlers must still run")
	assert.Contains(t, buf.String(), "event handler panic")
	assert.Contains(t, buf.String(), "events.LoginFailed")
}

func TestTopicConcurrentPublish(t *testing.T) {
	var topic Topic[ContentChanged]
	var mu sync.Mutex
	count := 0
	topic.Subscribe(func(ctx context.Context, ev ContentChanged) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			topic.Publish(context.Background(), ContentChanged{Kind: models.KindPost})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, count)
}

func TestRequestCompletedDuration(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	ev := RequestCompleted{StartedAt: start, FinishedAt: start.Add(250 * time.Millisecond)}
	assert.Equal(t, 250*time.Millisecond, ev.Duration())

	ev = RequestCompleted{FinishedAt: start}
	assert.Zero(t, ev.Duration())
}
