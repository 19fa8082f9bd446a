package relay

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.dedis.ch/smc/secretshare"
	"go.dedis.ch/smc/transport"
	"go.dedis.ch/smc/ttp"
	"go.dedis.ch/smc/types"
	"golang.org/x/xerrors"
)

// NewTransport returns a transport creating sockets on the relay at baseURL.
func NewTransport(baseURL string) *Transport {
	return &Transport{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Transport creates relay clients.
//
// - implements transport.Transport
type Transport struct {
	baseURL string
	client  *http.Client
}

// CreateSocket implements transport.Transport
func (t *Transport) CreateSocket(id string) (transport.Socket, error) {
	if id == "" {
		return nil, xerrors.Errorf("empty participant id")
	}
	return t.Client(id), nil
}

// Client returns the relay client of participant id.
func (t *Transport) Client(id string) *Client {
	return &Client{
		baseURL: t.baseURL,
		id:      id,
		client:  t.client,
	}
}

// Client talks to the relay on behalf of one participant. The http client has
// no timeout since retrievals are long polls; the context bounds them.
//
// - implements transport.Socket
// - implements peer.TripletSource
type Client struct {
	baseURL string
	id      string
	client  *http.Client
}

// GetAddress implements transport.Socket
func (c *Client) GetAddress() string {
	return c.id
}

// Publish implements transport.Socket
func (c *Client) Publish(ctx context.Context, tag string, payload []byte) error {
	_, err := c.do(ctx, http.MethodPost, payload, "public", c.id, tag)
	return err
}

// RetrievePublic implements transport.Socket
func (c *Client) RetrievePublic(ctx context.Context, sender, tag string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, nil, "public", sender, tag)
}

// SendPrivate implements transport.Socket
func (c *Client) SendPrivate(ctx context.Context, receiver string, payload []byte) error {
	_, err := c.do(ctx, http.MethodPost, payload, "private", c.id, receiver)
	return err
}

// RetrievePrivate implements transport.Socket
func (c *Client) RetrievePrivate(ctx context.Context, sender string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, nil, "private", sender, c.id)
}

// RetrieveTriplet implements peer.TripletSource
func (c *Client) RetrieveTriplet(ctx context.Context, participantID, opID string) (secretshare.Triplet, error) {
	buf, err := c.do(ctx, http.MethodGet, nil, "triplets", participantID, opID)
	if err != nil {
		return secretshare.Triplet{}, err
	}

	msg := types.TripletSharesMessage{}
	err = types.Unmarshal(buf, &msg)
	if err != nil {
		return secretshare.Triplet{}, err
	}

	if msg.OpID != opID {
		return secretshare.Triplet{}, xerrors.Errorf("asked triplet %s, got %s", opID, msg.OpID)
	}

	return secretshare.Triplet{
		A: secretshare.ShareFromBytes(msg.A),
		B: secretshare.ShareFromBytes(msg.B),
		C: secretshare.ShareFromBytes(msg.C),

		Participants: msg.Participants,
	}, nil
}

// Participants returns the participants registered on the relay.
func (c *Client) Participants(ctx context.Context) ([]string, error) {
	buf, err := c.do(ctx, http.MethodGet, nil, "participants")
	if err != nil {
		return nil, err
	}

	msg := types.ParticipantsMessage{}
	err = types.Unmarshal(buf, &msg)
	if err != nil {
		return nil, err
	}

	return msg.Participants, nil
}

// do sends a request to the path made of the escaped segments and returns the
// response body.
func (c *Client) do(ctx context.Context, method string, payload []byte, segments ...string) ([]byte, error) {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	target := c.baseURL + "/" + strings.Join(escaped, "/")

	var body io.Reader
	if method == http.MethodPost {
		// zero encodes as an empty payload
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, xerrors.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("%s %s failed: %w", method, target, err)
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return buf, nil
	case http.StatusConflict:
		return nil, xerrors.Errorf("%s: %w", target, transport.ErrAlreadyPublished)
	case http.StatusNotFound:
		if len(segments) > 0 && segments[0] == "triplets" {
			return nil, xerrors.Errorf("%s: %w", target, ttp.ErrUnknownParticipant)
		}
	}

	return nil, xerrors.Errorf("%s %s: unexpected status %d: %s",
		method, target, resp.StatusCode, strings.TrimSpace(string(buf)))
}
