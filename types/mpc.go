package types

import "fmt"

// -----------------------------------------------------------------------------
// SecretIDsMessage

// NewEmpty implements types.Message.
func (m SecretIDsMessage) NewEmpty() Message {
	return &SecretIDsMessage{}
}

// Name implements types.Message.
func (SecretIDsMessage) Name() string {
	return "secretids"
}

// String implements types.Message.
func (m SecretIDsMessage) String() string {
	return fmt.Sprintf("{secret ids of %s: %v}", m.Owner, m.IDs)
}

// -----------------------------------------------------------------------------
// ShareBundleMessage

// NewEmpty implements types.Message.
func (m ShareBundleMessage) NewEmpty() Message {
	return &ShareBundleMessage{}
}

// Name implements types.Message.
func (ShareBundleMessage) Name() string {
	return "sharebundle"
}

// String implements types.Message. Share values are not printed.
func (m ShareBundleMessage) String() string {
	return fmt.Sprintf("{share bundle from %s: %d shares}", m.Owner, len(m.Shares))
}

// -----------------------------------------------------------------------------
// TripletSharesMessage

// NewEmpty implements types.Message.
func (m TripletSharesMessage) NewEmpty() Message {
	return &TripletSharesMessage{}
}

// Name implements types.Message.
func (TripletSharesMessage) Name() string {
	return "tripletshares"
}

// String implements types.Message.
func (m TripletSharesMessage) String() string {
	return fmt.Sprintf("{triplet shares for %s}", m.OpID)
}

// -----------------------------------------------------------------------------
// ParticipantsMessage

// NewEmpty implements types.Message.
func (m ParticipantsMessage) NewEmpty() Message {
	return &ParticipantsMessage{}
}

// Name implements types.Message.
func (ParticipantsMessage) Name() string {
	return "participants"
}

// String implements types.Message.
func (m ParticipantsMessage) String() string {
	return fmt.Sprintf("{participants: %v}", m.Participants)
}
