package mpc

import (
	"context"
	"encoding/hex"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	"go.dedis.ch/smc/secretshare"
	"golang.org/x/xerrors"
)

// digestSize is the number of digest bytes kept in an operation id.
const digestSize = 8

// operationID names the triplet of one multiplication. The owners make it
// readable; the digest binds it to both operands and to the position of the
// multiplication in the run, so two multiplications never share a triplet.
func operationID(x, y operand, seq int) string {
	h := blake3.New()
	for _, part := range []string{x.id, y.id, strconv.Itoa(seq)} {
		// length prefix keeps the encoding unambiguous
		h.Write([]byte(strconv.Itoa(len(part))))
		h.Write([]byte{':'})
		h.Write([]byte(part))
	}

	digest := h.Sum(nil)
	return x.owner + y.owner + "#" + hex.EncodeToString(digest[:digestSize])
}

// beaver multiplies two secret-shared operands with a triplet (a, b, c):
// D = x-a and E = y-b are opened, and z = c + D*y + E*x - D*E, where only the
// leader subtracts the public D*E.
func (p *Party) beaver(ctx context.Context, s *session, x, y operand) (secretshare.Share, error) {
	opID := operationID(x, y, s.nextMult())

	if p.conf.Triplets == nil {
		return secretshare.Share{}, xerrors.Errorf("no triplet source for %s", opID)
	}

	triplet, err := p.conf.Triplets.RetrieveTriplet(ctx, p.id(), opID)
	if err != nil {
		return secretshare.Share{}, xerrors.Errorf("failed to get triplet %s: %w", opID, err)
	}

	if !p.spec.Matches(triplet.Participants) {
		return secretshare.Share{}, xerrors.Errorf("%s split over %v: %w",
			opID, triplet.Participants, ErrTripletMismatch)
	}

	dTag, eTag := opID+"_d", opID+"_e"

	err = p.publish(ctx, dTag, x.share.Sub(triplet.A))
	if err != nil {
		return secretshare.Share{}, err
	}
	err = p.publish(ctx, eTag, y.share.Sub(triplet.B))
	if err != nil {
		return secretshare.Share{}, err
	}

	d, err := p.collect(ctx, dTag)
	if err != nil {
		return secretshare.Share{}, err
	}
	e, err := p.collect(ctx, eTag)
	if err != nil {
		return secretshare.Share{}, err
	}

	z := triplet.C.Add(y.share.Scale(d)).Add(x.share.Scale(e))
	if p.isLeader() {
		z = z.Sub(secretshare.NewShare(d.Mul(e)))
	}

	log.Debug().Msgf("%s: multiplied %s by %s with %s", p.id(), x.id, y.id, opID)

	return z, nil
}
