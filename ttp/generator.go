// Package ttp implements the trusted third party that deals Beaver triplets.
// For every operation id it draws a, b and c = a*b once, splits them over the
// participants and hands each participant its slice on request.
package ttp

import (
	"context"
	"crypto/rand"
	"io"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog/log"
	"go.dedis.ch/smc/field"
	"go.dedis.ch/smc/secretshare"
	"go.dedis.ch/smc/storage"
	"golang.org/x/xerrors"
)

// ErrUnknownParticipant is returned when shares are asked for a participant
// that is not registered.
var ErrUnknownParticipant = xerrors.New("unknown participant")

// tripletRecord is what the store keeps for one operation. The shares at index
// i belong to Participants[i].
type tripletRecord struct {
	Participants []string `cbor:"1,keyasint"`
	A            [][]byte `cbor:"2,keyasint"`
	B            [][]byte `cbor:"3,keyasint"`
	C            [][]byte `cbor:"4,keyasint"`
}

// Generator deals Beaver triplets.
//
// - implements peer.TripletSource
type Generator struct {
	sync.RWMutex
	participants map[string]struct{}
	store        storage.KVStore
	rand         io.Reader
}

// NewGenerator creates a generator caching its triplets in store. A nil store
// means an in-memory one.
func NewGenerator(store storage.KVStore) *Generator {
	if store == nil {
		store = storage.NewBasicKV()
	}

	return &Generator{
		participants: map[string]struct{}{},
		store:        store,
		rand:         rand.Reader,
	}
}

// SetRand replaces the randomness source. Used by tests.
func (g *Generator) SetRand(r io.Reader) {
	g.Lock()
	defer g.Unlock()

	g.rand = r
}

// AddParticipant registers a participant. Adding it again has no effect.
func (g *Generator) AddParticipant(id string) {
	g.Lock()
	defer g.Unlock()

	g.participants[id] = struct{}{}
}

// Participants returns the registered participants, sorted.
func (g *Generator) Participants() []string {
	g.RLock()
	defer g.RUnlock()

	res := make([]string, 0, len(g.participants))
	for id := range g.participants {
		res = append(res, id)
	}
	sort.Strings(res)
	return res
}

// Len returns the number of triplets dealt so far.
func (g *Generator) Len() (int, error) {
	return g.store.Len()
}

// RetrieveShare returns the participant's shares of the triplet of opID,
// generating the triplet the first time opID is seen.
func (g *Generator) RetrieveShare(participantID, opID string) (secretshare.Triplet, error) {
	g.RLock()
	_, known := g.participants[participantID]
	g.RUnlock()

	if !known {
		return secretshare.Triplet{}, xerrors.Errorf("%s: %w", participantID, ErrUnknownParticipant)
	}

	record, err := g.load(opID)
	if err != nil {
		return secretshare.Triplet{}, err
	}

	for i, id := range record.Participants {
		if id == participantID {
			return secretshare.Triplet{
				A: secretshare.ShareFromBytes(record.A[i]),
				B: secretshare.ShareFromBytes(record.B[i]),
				C: secretshare.ShareFromBytes(record.C[i]),

				Participants: append([]string{}, record.Participants...),
			}, nil
		}
	}

	// registered after the triplet was dealt
	return secretshare.Triplet{}, xerrors.Errorf("%s not dealt for %s: %w",
		participantID, opID, ErrUnknownParticipant)
}

// RetrieveTriplet implements peer.TripletSource
func (g *Generator) RetrieveTriplet(ctx context.Context, participantID, opID string) (secretshare.Triplet, error) {
	err := ctx.Err()
	if err != nil {
		return secretshare.Triplet{}, err
	}
	return g.RetrieveShare(participantID, opID)
}

// load returns the record of opID, dealing it if needed. When two callers deal
// concurrently the first write wins and the other candidate is dropped.
func (g *Generator) load(opID string) (tripletRecord, error) {
	var record tripletRecord

	buf, found, err := g.store.Get(opID)
	if err != nil {
		return record, xerrors.Errorf("failed to read triplet %s: %w", opID, err)
	}

	if !found {
		candidate, err := g.deal()
		if err != nil {
			return record, xerrors.Errorf("failed to deal triplet %s: %w", opID, err)
		}

		data, err := cbor.Marshal(candidate)
		if err != nil {
			return record, xerrors.Errorf("failed to encode triplet: %w", err)
		}

		var inserted bool
		buf, inserted, err = g.store.PutIfAbsent(opID, data)
		if err != nil {
			return record, xerrors.Errorf("failed to store triplet %s: %w", opID, err)
		}
		if inserted {
			log.Debug().Msgf("ttp: dealt triplet %s for %v", opID, candidate.Participants)
		}
	}

	err = cbor.Unmarshal(buf, &record)
	if err != nil {
		return record, xerrors.Errorf("failed to decode triplet %s: %w", opID, err)
	}

	return record, nil
}

// deal holds the write lock while sampling, so that the reader given to SetRand
// is never used concurrently.
func (g *Generator) deal() (tripletRecord, error) {
	participants := g.Participants()

	g.Lock()
	defer g.Unlock()

	a, err := field.Random(g.rand)
	if err != nil {
		return tripletRecord{}, err
	}
	b, err := field.Random(g.rand)
	if err != nil {
		return tripletRecord{}, err
	}
	c := a.Mul(b)

	record := tripletRecord{Participants: participants}

	record.A, err = splitEncoded(g.rand, a, len(participants))
	if err != nil {
		return tripletRecord{}, err
	}
	record.B, err = splitEncoded(g.rand, b, len(participants))
	if err != nil {
		return tripletRecord{}, err
	}
	record.C, err = splitEncoded(g.rand, c, len(participants))
	if err != nil {
		return tripletRecord{}, err
	}

	return record, nil
}

func splitEncoded(rand io.Reader, v field.Element, n int) ([][]byte, error) {
	shares, err := secretshare.Split(rand, v, n)
	if err != nil {
		return nil, err
	}

	res := make([][]byte, len(shares))
	for i, s := range shares {
		res[i] = s.Bytes()
	}
	return res, nil
}
