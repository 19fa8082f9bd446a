package types

import (
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/xerrors"
)

// Message defines the type of message that can be exchanged by participants.
type Message interface {
	// NewEmpty returns an empty pointer of the message type, ready to be
	// decoded into.
	NewEmpty() Message

	// Name returns the name of the message.
	Name() string

	String() string
}

var encMode cbor.EncMode

func init() {
	var err error
	// canonical encoding: equal messages give equal bytes
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// Marshal encodes a message in CBOR.
func Marshal(msg Message) ([]byte, error) {
	data, err := encMode.Marshal(msg)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal %s: %w", msg.Name(), err)
	}
	return data, nil
}

// Unmarshal decodes data into msg, which must be a pointer.
func Unmarshal(data []byte, msg Message) error {
	err := cbor.Unmarshal(data, msg)
	if err != nil {
		return xerrors.Errorf("failed to unmarshal %s: %w", msg.Name(), err)
	}
	return nil
}
