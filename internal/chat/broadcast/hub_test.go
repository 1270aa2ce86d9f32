package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portalchat/internal/chat/models"
)

func drain(t *testing.T, sub *Subscription) []models.Event {
	t.Helper()
	var out []models.Event
	for {
		ev, ok, err := sub.Mailbox.Wait(context.Background(), 10*time.Millisecond)
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	h := NewHub(10)
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Size())

	h.Publish(models.DeleteEvent("m-1"))
	h.Publish(models.ReadEvent("m-2", "bob"))

	for _, sub := range []*Subscription{a, b} {
		got := drain(t, sub)
		require.Len(t, got, 2)
		assert.Equal(t, models.EventDelete, got[0].Type)
		assert.Equal(t, "m-1", got[0].ID)
		assert.Equal(t, models.EventRead, got[1].Type)
		assert.Equal(t, "bob", got[1].Username)
	}
}

func TestHub_NoReplayForLateSubscribers(t *testing.T) {
	h := NewHub(10)
	h.Publish(models.DeleteEvent("before"))

	sub := h.Subscribe()
	h.Publish(models.DeleteEvent("after"))

	got := drain(t, sub)
	require.Len(t, got, 1)
	assert.Equal(t, "after", got[0].ID)
}

func TestHub_FullSubscriberDoesNotAffectOthers(t *testing.T) {
	h := NewHub(2)
	slow := h.Subscribe()
	fast := h.Subscribe()

	ids := []string{"1", "2", "3"}
	for _, id := range ids[:2] {
		h.Publish(models.DeleteEvent(id))
	}
	// fast keeps up, slow does not.
	require.Len(t, drain(t, fast), 2)
	h.Publish(models.DeleteEvent(ids[2]))

	slowGot := drain(t, slow)
	require.Len(t, slowGot, 2)
	assert.Equal(t, "1", slowGot[0].ID)
	assert.Equal(t, "2", slowGot[1].ID)

	fastGot := drain(t, fast)
	require.Len(t, fastGot, 1)
	assert.Equal(t, "3", fastGot[0].ID)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub(4)
	sub := h.Subscribe()
	h.Unsubscribe(sub)
	h.Unsubscribe(sub)
	h.Unsubscribe(nil)
	assert.Equal(t, 0, h.Size())

	h.Publish(models.DeleteEvent("x"))
	assert.Empty(t, drain(t, sub))
}

func TestHub_PublishWithNoSubscribers(t *testing.T) {
	h := NewHub(0)
	assert.NotPanics(t, func() { h.Publish(models.Ping) })
}

func TestHub_ConcurrentSubscribeAndPublish(t *testing.T) {
	h := NewHub(100)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := h.Subscribe()
			h.Unsubscribe(sub)
		}()
		go func() {
			defer wg.Done()
			h.Publish(models.Ping)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.Size())
}
