package mpc

import (
	"fmt"

	"go.dedis.ch/smc/secretshare"
)

const (
	// syntheticPrefix namespaces the ids of materialized intermediate values.
	// Real secret ids never start with it.
	syntheticPrefix = "syn:"
	// syntheticOwnerPrefix namespaces the virtual owners of synthetic secrets.
	syntheticOwnerPrefix = "~"
)

// session is the state of one run. It is owned by a single goroutine and
// dropped when the run ends.
type session struct {
	// owners maps a secret id to the participant holding it
	owners map[string]string
	// shares maps a secret id to this participant's share of it
	shares map[string]secretshare.Share

	synthetic int
	mults     int
}

func newSession() *session {
	return &session{
		owners: map[string]string{},
		shares: map[string]secretshare.Share{},
	}
}

// materialize records share as the share of a fresh synthetic secret and
// returns its id and virtual owner.
func (s *session) materialize(share secretshare.Share) operand {
	s.synthetic++

	op := operand{
		id:    fmt.Sprintf("%s%d", syntheticPrefix, s.synthetic),
		owner: fmt.Sprintf("%s%d", syntheticOwnerPrefix, s.synthetic),
		share: share,
	}

	s.owners[op.id] = op.owner
	s.shares[op.id] = share

	return op
}

// nextMult returns the sequence number of a new multiplication.
func (s *session) nextMult() int {
	s.mults++
	return s.mults
}

// operand is one side of a Beaver multiplication.
type operand struct {
	id    string
	owner string
	share secretshare.Share
}
