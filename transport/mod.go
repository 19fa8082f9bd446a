// Package transport defines the communication primitives used by the parties:
// a public board where every participant publishes tagged values, and private
// point-to-point mailboxes holding one message per (sender, receiver) pair.
package transport

import (
	"context"

	"golang.org/x/xerrors"
)

// ErrAlreadyPublished is returned when a slot that was already written is
// written again.
var ErrAlreadyPublished = xerrors.New("already published")

// Transport creates sockets bound to participant identities.
type Transport interface {
	CreateSocket(id string) (Socket, error)
}

// Socket is the view one participant has on the transport. Blocking calls
// return the context error when ctx is done.
type Socket interface {
	// GetAddress returns the identity the socket is bound to.
	GetAddress() string

	// Publish makes payload readable by everyone under (self, tag). Publishing
	// twice under the same tag returns ErrAlreadyPublished.
	Publish(ctx context.Context, tag string, payload []byte) error

	// RetrievePublic blocks until sender has published under tag.
	RetrievePublic(ctx context.Context, sender, tag string) ([]byte, error)

	// SendPrivate delivers payload to receiver. Only one private message per
	// (sender, receiver) pair is allowed.
	SendPrivate(ctx context.Context, receiver string, payload []byte) error

	// RetrievePrivate blocks until the private message from sender to self is
	// available.
	RetrievePrivate(ctx context.Context, sender string) ([]byte, error)
}
