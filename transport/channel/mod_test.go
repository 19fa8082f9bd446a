package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/smc/transport"
)

func Test_channel_public(t *testing.T) {
	trans := NewTransport()

	alice, err := trans.CreateSocket("Alice")
	require.NoError(t, err)
	bob, err := trans.CreateSocket("Bob")
	require.NoError(t, err)

	require.Equal(t, "Alice", alice.GetAddress())

	ctx := context.Background()

	err = alice.Publish(ctx, "final", []byte("42"))
	require.NoError(t, err)

	// everyone, including the sender, can read it
	for _, s := range []transport.Socket{alice, bob} {
		payload, err := s.RetrievePublic(ctx, "Alice", "final")
		require.NoError(t, err)
		require.Equal(t, []byte("42"), payload)
	}

	err = alice.Publish(ctx, "final", []byte("43"))
	require.ErrorIs(t, err, transport.ErrAlreadyPublished)

	public, private := trans.Len()
	require.Equal(t, 1, public)
	require.Equal(t, 0, private)
}

func Test_channel_retrieve_blocks(t *testing.T) {
	trans := NewTransport()

	alice, err := trans.CreateSocket("Alice")
	require.NoError(t, err)
	bob, err := trans.CreateSocket("Bob")
	require.NoError(t, err)

	ctx := context.Background()

	wg := sync.WaitGroup{}
	wg.Add(1)

	var received []byte
	go func() {
		defer wg.Done()
		received, err = bob.RetrievePrivate(ctx, "Alice")
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, alice.SendPrivate(ctx, "Bob", []byte{1, 2, 3}))

	wg.Wait()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, received)

	// only one private message per pair
	err = alice.SendPrivate(ctx, "Bob", []byte{4})
	require.ErrorIs(t, err, transport.ErrAlreadyPublished)

	// Alice -> Charlie is a different mailbox
	require.NoError(t, alice.SendPrivate(ctx, "Charlie", []byte{4}))
}

func Test_channel_context_done(t *testing.T) {
	trans := NewTransport()

	bob, err := trans.CreateSocket("Bob")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = bob.RetrievePublic(ctx, "Alice", "secret-ids")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = bob.RetrievePrivate(ctx, "Alice")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func Test_channel_payload_copied(t *testing.T) {
	trans := NewTransport()

	alice, err := trans.CreateSocket("Alice")
	require.NoError(t, err)

	payload := []byte("abc")
	require.NoError(t, alice.Publish(context.Background(), "t", payload))
	payload[0] = 'X'

	res, err := alice.RetrievePublic(context.Background(), "Alice", "t")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), res)
}

func Test_channel_empty_id(t *testing.T) {
	_, err := NewTransport().CreateSocket("")
	require.Error(t, err)
}
