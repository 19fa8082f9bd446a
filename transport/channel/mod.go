// Package channel implements an in-process transport. All the sockets created
// from the same Transport share one board, which makes it the transport used
// by simulations and tests.
package channel

import (
	"context"
	"sync"

	"go.dedis.ch/smc/transport"
	"golang.org/x/xerrors"
)

// NewTransport returns a new empty in-process transport.
func NewTransport() *Transport {
	return &Transport{
		public:  map[slotKey]*slot{},
		private: map[slotKey]*slot{},
	}
}

// Transport is a board of write-once slots. A public slot is keyed by
// (sender, tag), a private slot by (sender, receiver).
//
// - implements transport.Transport
type Transport struct {
	sync.Mutex
	public  map[slotKey]*slot
	private map[slotKey]*slot
}

type slotKey struct {
	from string
	to   string
}

// slot is filled at most once. ready is closed when it is.
type slot struct {
	ready   chan struct{}
	payload []byte
	filled  bool
}

func newSlot() *slot {
	return &slot{ready: make(chan struct{})}
}

// CreateSocket implements transport.Transport
func (t *Transport) CreateSocket(id string) (transport.Socket, error) {
	if id == "" {
		return nil, xerrors.Errorf("empty participant id")
	}
	return &Socket{board: t, id: id}, nil
}

// Publish writes a public value for sender.
func (t *Transport) Publish(sender, tag string, payload []byte) error {
	return t.fill(t.public, slotKey{from: sender, to: tag}, payload)
}

// RetrievePublic waits for the public value of sender under tag.
func (t *Transport) RetrievePublic(ctx context.Context, sender, tag string) ([]byte, error) {
	return t.wait(ctx, t.public, slotKey{from: sender, to: tag})
}

// SendPrivate writes the private message from sender to receiver.
func (t *Transport) SendPrivate(sender, receiver string, payload []byte) error {
	return t.fill(t.private, slotKey{from: sender, to: receiver}, payload)
}

// RetrievePrivate waits for the private message from sender to receiver.
func (t *Transport) RetrievePrivate(ctx context.Context, sender, receiver string) ([]byte, error) {
	return t.wait(ctx, t.private, slotKey{from: sender, to: receiver})
}

// Len returns the number of filled public and private slots.
func (t *Transport) Len() (public int, private int) {
	t.Lock()
	defer t.Unlock()

	for _, s := range t.public {
		if s.filled {
			public++
		}
	}
	for _, s := range t.private {
		if s.filled {
			private++
		}
	}
	return public, private
}

func (t *Transport) get(slots map[slotKey]*slot, key slotKey) *slot {
	s, ok := slots[key]
	if !ok {
		s = newSlot()
		slots[key] = s
	}
	return s
}

func (t *Transport) fill(slots map[slotKey]*slot, key slotKey, payload []byte) error {
	t.Lock()
	defer t.Unlock()

	s := t.get(slots, key)
	if s.filled {
		return xerrors.Errorf("%s -> %s: %w", key.from, key.to, transport.ErrAlreadyPublished)
	}

	s.payload = make([]byte, len(payload))
	copy(s.payload, payload)
	s.filled = true
	close(s.ready)

	return nil
}

func (t *Transport) wait(ctx context.Context, slots map[slotKey]*slot, key slotKey) ([]byte, error) {
	t.Lock()
	s := t.get(slots, key)
	t.Unlock()

	select {
	case <-s.ready:
	case <-ctx.Done():
		return nil, xerrors.Errorf("waiting for %s -> %s: %w", key.from, key.to, ctx.Err())
	}

	// the payload is never written again once ready is closed
	res := make([]byte, len(s.payload))
	copy(res, s.payload)
	return res, nil
}

// Socket is one participant's view on the board.
//
// - implements transport.Socket
type Socket struct {
	board *Transport
	id    string
}

// GetAddress implements transport.Socket
func (s *Socket) GetAddress() string {
	return s.id
}

// Publish implements transport.Socket
func (s *Socket) Publish(ctx context.Context, tag string, payload []byte) error {
	return s.board.Publish(s.id, tag, payload)
}

// RetrievePublic implements transport.Socket
func (s *Socket) RetrievePublic(ctx context.Context, sender, tag string) ([]byte, error) {
	return s.board.RetrievePublic(ctx, sender, tag)
}

// SendPrivate implements transport.Socket
func (s *Socket) SendPrivate(ctx context.Context, receiver string, payload []byte) error {
	return s.board.SendPrivate(s.id, receiver, payload)
}

// RetrievePrivate implements transport.Socket
func (s *Socket) RetrievePrivate(ctx context.Context, sender string) ([]byte, error) {
	return s.board.RetrievePrivate(ctx, sender, s.id)
}
