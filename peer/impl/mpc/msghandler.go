package mpc

import (
	"strings"

	"go.dedis.ch/smc/secretshare"
	"go.dedis.ch/smc/types"
	"golang.org/x/xerrors"
)

// processSecretIDs registers in the session the secrets announced by sender.
func (p *Party) processSecretIDs(s *session, sender string, payload []byte) error {
	msg := types.SecretIDsMessage{}
	err := types.Unmarshal(payload, &msg)
	if err != nil {
		return xerrors.Errorf("bad announcement from %s: %w", sender, err)
	}

	if msg.Owner != sender {
		return xerrors.Errorf("announcement of %s published by %s", msg.Owner, sender)
	}

	for _, id := range msg.IDs {
		if strings.HasPrefix(id, syntheticPrefix) {
			return xerrors.Errorf("%s announced reserved id %s", sender, id)
		}

		owner, found := s.owners[id]
		if found {
			return xerrors.Errorf("%s claimed by %s and %s: %w", id, owner, sender, ErrDuplicateSecret)
		}
		s.owners[id] = sender
	}

	return nil
}

// processShareBundle stores the shares sent by sender. The bundle must hold a
// share for every secret the sender announced, and nothing else.
func (p *Party) processShareBundle(s *session, sender string, payload []byte) error {
	msg := types.ShareBundleMessage{}
	err := types.Unmarshal(payload, &msg)
	if err != nil {
		return xerrors.Errorf("bad share bundle from %s: %w", sender, err)
	}

	if msg.Owner != sender {
		return xerrors.Errorf("bundle of %s sent by %s", msg.Owner, sender)
	}

	for id, buf := range msg.Shares {
		if s.owners[id] != sender {
			return xerrors.Errorf("%s sent a share of %s: %w", sender, id, ErrUnknownSecret)
		}
		s.shares[id] = secretshare.ShareFromBytes(buf)
	}

	for id, owner := range s.owners {
		_, found := s.shares[id]
		if owner == sender && !found {
			return xerrors.Errorf("%s did not send a share of %s", sender, id)
		}
	}

	return nil
}
