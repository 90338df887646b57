package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tibacare/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	mu    sync.Mutex
	calls int
	fail  int
	ch    chan []*model.Booking
}

func (s *fakeSubscriber) Subscribe(_ context.Context, providerID string) (<-chan []*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if providerID != "" {
		return nil, errors.New("unexpected provider filter")
	}
	if s.calls <= s.fail {
		return nil, errors.New("replica set unavailable")
	}
	return s.ch, nil
}

func bookingsFixture() []*model.Booking {
	return []*model.Booking{
		{ID: "1", ProviderID: "dr-otieno", PreferredTime: "09:00", Status: model.StatusInProgress},
		{ID: "2", ProviderID: "dr-wanjiru", PreferredTime: "09:30", Status: model.StatusPending},
		{ID: "3", ProviderID: "dr-otieno", PreferredTime: "10:00", Status: model.StatusQueued},
		{ID: "4", ProviderID: "dr-otieno", PreferredTime: "11:00", Status: model.StatusCompleted},
	}
}

func TestLoop_PublishPartitionsPerTopic(t *testing.T) {
	hub := newTestHub()
	loop := NewLoop(&fakeSubscriber{}, hub, hub.log)

	loop.publish(bookingsFixture())

	all := NewClient("a", TopicAll)
	otieno := NewClient("o", ProviderTopic("dr-otieno"))
	wanjiru := NewClient("w", ProviderTopic("dr-wanjiru"))
	hub.Register(all)
	hub.Register(otieno)
	hub.Register(wanjiru)

	msg := decode(t, <-all.Send)
	assert.Equal(t, "1", msg.Dashboard.Current.ID)
	assert.Len(t, msg.Dashboard.Queue, 1)
	assert.Len(t, msg.Dashboard.Upcoming, 1)

	msg = decode(t, <-otieno.Send)
	assert.Equal(t, "1", msg.Dashboard.Current.ID)
	assert.Len(t, msg.Dashboard.Queue, 1)

	msg = decode(t, <-wanjiru.Send)
	assert.Equal(t, "2", msg.Dashboard.Current.ID)
	assert.Empty(t, msg.Dashboard.Queue)
	assert.Empty(t, msg.Dashboard.Upcoming)
}

func TestLoop_ProviderWithoutBookingsGetsEmptyDashboard(t *testing.T) {
	hub := newTestHub()
	loop := NewLoop(&fakeSubscriber{}, hub, hub.log)
	loop.publish(bookingsFixture())

	wanjiru := NewClient("w", ProviderTopic("dr-wanjiru"))
	hub.Register(wanjiru)
	<-wanjiru.Send

	loop.publish(bookingsFixture()[:1])

	require.Len(t, wanjiru.Send, 1)
	msg := decode(t, <-wanjiru.Send)
	assert.Nil(t, msg.Dashboard.Current)
	assert.Empty(t, msg.Dashboard.Queue)
}

func TestLoop_RunResubscribesAfterFailure(t *testing.T) {
	hub := newTestHub()
	sub := &fakeSubscriber{fail: 1, ch: make(chan []*model.Booking, 1)}
	sub.ch <- bookingsFixture()

	client := NewClient("a", TopicAll)
	hub.Register(client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewLoop(sub, hub, hub.log).Run(ctx) }()

	select {
	case data := <-client.Send:
		msg := decode(t, data)
		assert.Equal(t, "1", msg.Dashboard.Current.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("no snapshot after resubscribe")
	}

	cancel()
	close(sub.ch)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("loop did not stop")
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	assert.GreaterOrEqual(t, sub.calls, 2)
}
