package peer

import (
	"context"
	"io"
	"sort"

	"go.dedis.ch/smc/expression"
	"go.dedis.ch/smc/field"
	"go.dedis.ch/smc/secretshare"
	"go.dedis.ch/smc/transport"
)

// Party is one participant of a computation.
type Party interface {
	// Run executes the protocol to completion and returns the revealed result.
	// It blocks until every participant has contributed, or ctx is done.
	Run(ctx context.Context) (field.Element, error)
}

// TripletSource hands out Beaver triplet shares.
type TripletSource interface {
	// RetrieveTriplet returns the participant's shares of the triplet dealt
	// for opID. Every participant asking for the same opID gets a slice of
	// the same triplet, and the triplet lists the participants it was split
	// over.
	RetrieveTriplet(ctx context.Context, participantID, opID string) (secretshare.Triplet, error)
}

// Configuration holds the dependencies of a party.
type Configuration struct {
	Socket   transport.Socket
	Triplets TripletSource

	// Rand is the randomness used to split secrets. Defaults to crypto/rand.
	Rand io.Reader
}

// ProtocolSpec describes a computation. All participants must use the same.
type ProtocolSpec struct {
	Expr         expression.Expression
	Participants []string
}

// Leader returns the participant that adds the public terms, the first one.
func (s ProtocolSpec) Leader() string {
	if len(s.Participants) == 0 {
		return ""
	}
	return s.Participants[0]
}

// Index returns the position of id in the canonical order, or -1.
func (s ProtocolSpec) Index(id string) int {
	for i, p := range s.Participants {
		if p == id {
			return i
		}
	}
	return -1
}

// Matches tells if set holds exactly the participants, in any order.
func (s ProtocolSpec) Matches(set []string) bool {
	if len(set) != len(s.Participants) {
		return false
	}

	expected := append([]string{}, s.Participants...)
	got := append([]string{}, set...)
	sort.Strings(expected)
	sort.Strings(got)

	for i := range expected {
		if expected[i] != got[i] {
			return false
		}
	}
	return true
}
