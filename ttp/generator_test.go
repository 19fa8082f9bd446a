package ttp

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/smc/field"
	"go.dedis.ch/smc/secretshare"
	"go.dedis.ch/smc/storage"
)

func newGenerator(participants ...string) *Generator {
	g := NewGenerator(nil)
	for _, p := range participants {
		g.AddParticipant(p)
	}
	return g
}

func collect(t *testing.T, g *Generator, opID string) (a, b, c field.Element) {
	var as, bs, cs []secretshare.Share
	for _, p := range g.Participants() {
		triplet, err := g.RetrieveShare(p, opID)
		require.NoError(t, err)
		as = append(as, triplet.A)
		bs = append(bs, triplet.B)
		cs = append(cs, triplet.C)
	}
	return secretshare.Reconstruct(as), secretshare.Reconstruct(bs), secretshare.Reconstruct(cs)
}

func Test_ttp_participants(t *testing.T) {
	g := newGenerator("Charlie", "Alice", "Bob", "Alice")
	require.Equal(t, []string{"Alice", "Bob", "Charlie"}, g.Participants())
}

func Test_ttp_triplet_is_valid(t *testing.T) {
	g := newGenerator("Alice", "Bob", "Charlie")

	for _, op := range []string{"AliceBob#1", "AliceBob#2", "BobCharlie#3"} {
		a, b, c := collect(t, g, op)
		require.True(t, a.Mul(b).Equal(c), op)
	}
}

func Test_ttp_idempotent(t *testing.T) {
	g := newGenerator("Alice", "Bob")

	first, err := g.RetrieveShare("Alice", "op")
	require.NoError(t, err)
	second, err := g.RetrieveShare("Alice", "op")
	require.NoError(t, err)

	require.True(t, first.A.Value.Equal(second.A.Value))
	require.True(t, first.B.Value.Equal(second.B.Value))
	require.True(t, first.C.Value.Equal(second.C.Value))

	n, err := g.Len()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func Test_ttp_concurrent_first_access(t *testing.T) {
	const rounds = 10

	participants := []string{"A", "B", "C", "D", "E"}
	g := newGenerator(participants...)

	results := make([][]secretshare.Triplet, rounds)

	wg := sync.WaitGroup{}
	wg.Add(rounds)
	for r := 0; r < rounds; r++ {
		go func(r int) {
			defer wg.Done()
			for _, p := range participants {
				triplet, err := g.RetrieveTriplet(context.Background(), p, "op")
				require.NoError(t, err)
				results[r] = append(results[r], triplet)
			}
		}(r)
	}
	wg.Wait()

	// every caller saw the same dealing
	for r := 1; r < rounds; r++ {
		for i := range participants {
			require.True(t, results[0][i].C.Value.Equal(results[r][i].C.Value))
		}
	}

	a, b, c := collect(t, g, "op")
	require.True(t, a.Mul(b).Equal(c))
}

func Test_ttp_unknown_participant(t *testing.T) {
	g := newGenerator("Alice", "Bob")

	_, err := g.RetrieveShare("Eve", "op")
	require.ErrorIs(t, err, ErrUnknownParticipant)

	// dealt before Charlie joined
	_, err = g.RetrieveShare("Alice", "op")
	require.NoError(t, err)

	g.AddParticipant("Charlie")
	_, err = g.RetrieveShare("Charlie", "op")
	require.ErrorIs(t, err, ErrUnknownParticipant)

	_, err = g.RetrieveShare("Charlie", "other")
	require.NoError(t, err)
}

func Test_ttp_context_done(t *testing.T) {
	g := newGenerator("Alice")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.RetrieveTriplet(ctx, "Alice", "op")
	require.ErrorIs(t, err, context.Canceled)
}

func Test_ttp_bolt_store(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triplets.db")

	store, err := storage.NewBoltKV(path)
	require.NoError(t, err)

	g := NewGenerator(store)
	g.AddParticipant("Alice")
	g.AddParticipant("Bob")

	before, err := g.RetrieveShare("Bob", "op")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// a restarted generator hands out the same shares
	store, err = storage.NewBoltKV(path)
	require.NoError(t, err)
	defer store.Close()

	g = NewGenerator(store)
	g.AddParticipant("Alice")
	g.AddParticipant("Bob")

	after, err := g.RetrieveShare("Bob", "op")
	require.NoError(t, err)
	require.True(t, before.A.Value.Equal(after.A.Value))
	require.True(t, before.C.Value.Equal(after.C.Value))

	a, b, c := collect(t, g, "op")
	require.True(t, a.Mul(b).Equal(c))
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func Test_ttp_randomness_failure(t *testing.T) {
	g := newGenerator("Alice")
	g.SetRand(brokenReader{})

	_, err := g.RetrieveShare("Alice", "op")
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// nothing was cached
	n, err := g.Len()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

// exclusiveReader records whether it was ever read from two goroutines at
// once.
type exclusiveReader struct {
	busy    atomic.Bool
	overlap atomic.Bool
}

func (r *exclusiveReader) Read(p []byte) (int, error) {
	if !r.busy.CompareAndSwap(false, true) {
		r.overlap.Store(true)
		return rand.Read(p)
	}
	defer r.busy.Store(false)

	time.Sleep(100 * time.Microsecond)
	return rand.Read(p)
}

func Test_ttp_rand_not_shared_between_deals(t *testing.T) {
	const ops = 20

	g := newGenerator("Alice", "Bob", "Charlie")
	reader := &exclusiveReader{}
	g.SetRand(reader)

	wg := sync.WaitGroup{}
	wg.Add(ops)
	for i := 0; i < ops; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := g.RetrieveShare("Alice", fmt.Sprintf("op%d", i))
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.False(t, reader.overlap.Load())

	n, err := g.Len()
	require.NoError(t, err)
	require.Equal(t, ops, n)
}

func Test_ttp_triplet_lists_participants(t *testing.T) {
	g := newGenerator("Charlie", "Alice", "Bob")

	triplet, err := g.RetrieveShare("Bob", "op")
	require.NoError(t, err)
	require.Equal(t, []string{"Alice", "Bob", "Charlie"}, triplet.Participants)
}
