package types

// SecretIDsMessage announces the identities of the secrets owned by a
// participant. It is published once, during the identity exchange.
//
// - implements types.Message
type SecretIDsMessage struct {
	Owner string   `cbor:"1,keyasint"`
	IDs   []string `cbor:"2,keyasint"`
}

// ShareBundleMessage carries, from one owner to one receiver, the receiver's
// share of every secret the owner holds. Shares use the field wire format.
//
// - implements types.Message
type ShareBundleMessage struct {
	Owner  string            `cbor:"1,keyasint"`
	Shares map[string][]byte `cbor:"2,keyasint"`
}

// TripletSharesMessage carries one participant's shares of a Beaver triplet.
//
// - implements types.Message
type TripletSharesMessage struct {
	OpID string `cbor:"1,keyasint"`
	A    []byte `cbor:"2,keyasint"`
	B    []byte `cbor:"3,keyasint"`
	C    []byte `cbor:"4,keyasint"`
	// Participants is the sorted set the triplet was split over.
	Participants []string `cbor:"5,keyasint"`
}

// ParticipantsMessage lists the participants registered on a relay.
//
// - implements types.Message
type ParticipantsMessage struct {
	Participants []string `cbor:"1,keyasint"`
}
