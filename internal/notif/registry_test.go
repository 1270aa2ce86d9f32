package notif

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_MailboxIsLazyAndStable(t *testing.T) {
	reg := NewRegistry(4)
	assert.Equal(t, 0, reg.Users())

	first := reg.Mailbox("alice")
	assert.Same(t, first, reg.Mailbox("alice"))
	assert.NotSame(t, first, reg.Mailbox("bob"))
	assert.Equal(t, 2, reg.Users())
	assert.Equal(t, 4, first.Cap())
}

func TestRegistry_PushAndKick(t *testing.T) {
	reg := NewRegistry(DefaultCapacity)

	require.True(t, reg.Push("alice", "please see me after class"))
	require.True(t, reg.Kick("alice"))

	mb := reg.Mailbox("alice")
	n, ok, err := mb.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Notification{Type: TypeMessage, Text: "please see me after class"}, n)

	n, ok, err = mb.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Notification{Type: TypeKick}, n)
}

func TestRegistry_PushBeforeStreamIsKept(t *testing.T) {
	reg := NewRegistry(DefaultCapacity)
	reg.Push("carol", "hola")

	assert.Equal(t, 1, reg.Mailbox("carol").Len())
}

func TestRegistry_FullMailboxDrops(t *testing.T) {
	reg := NewRegistry(2)

	assert.True(t, reg.Push("alice", "1"))
	assert.True(t, reg.Push("alice", "2"))
	assert.False(t, reg.Push("alice", "3"))
	assert.False(t, reg.Kick("alice"))

	// other users are unaffected
	assert.True(t, reg.Push("bob", "1"))
	assert.Equal(t, 2, reg.Mailbox("alice").Len())
}

func TestRegistry_ConcurrentFirstUse(t *testing.T) {
	reg := NewRegistry(100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Push("alice", "x")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reg.Users())
	assert.Equal(t, 50, reg.Mailbox("alice").Len())
}
