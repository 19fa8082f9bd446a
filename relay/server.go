// Package relay exposes the public board, the private mailboxes and the triplet
// generator over HTTP, so that parties running in different processes can
// compute together. Retrievals are long polls: the server answers once the
// value is there.
package relay

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.dedis.ch/smc/transport"
	"go.dedis.ch/smc/transport/channel"
	"go.dedis.ch/smc/ttp"
	"go.dedis.ch/smc/types"
	"golang.org/x/xerrors"
)

const (
	// MaxPayloadSize bounds the body of published and sent messages.
	MaxPayloadSize = 1 << 20

	shutdownTimeout = 5 * time.Second
)

// Server is the relay between the parties.
type Server struct {
	board     *channel.Transport
	generator *ttp.Generator

	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
	messages *prometheus.CounterVec

	handler http.Handler
}

// NewServer creates a relay dealing triplets from generator.
func NewServer(generator *ttp.Generator) *Server {
	s := &Server{
		board:     channel.NewTransport(),
		generator: generator,
		registry:  prometheus.NewRegistry(),

		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_http_call_counter",
			Help: "Number of HTTP calls received",
		}, []string{"code", "method"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_http_response_duration",
			Help:    "histogram of request latencies, long polls included",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_http_in_flight",
			Help: "A gauge of requests currently being served.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_messages",
			Help: "Number of messages stored, by kind",
		}, []string{"kind"}),
	}

	s.registry.MustRegister(s.calls, s.latency, s.inFlight, s.messages)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Post("/public/{sender}/{tag}", s.publish)
	r.Get("/public/{sender}/{tag}", s.retrievePublic)
	r.Post("/private/{sender}/{receiver}", s.sendPrivate)
	r.Get("/private/{sender}/{receiver}", s.retrievePrivate)
	r.Get("/triplets/{participant}/{opID}", s.triplet)
	r.Get("/participants", s.participants)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	s.handler = promhttp.InstrumentHandlerInFlight(s.inFlight,
		promhttp.InstrumentHandlerCounter(s.calls,
			promhttp.InstrumentHandlerDuration(s.latency, r)))

	return s
}

// Handler returns the HTTP handler of the relay.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry returns the metrics of the relay.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// ListenAndServe serves on addr until ctx is done. Pending long polls are
// released when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return xerrors.Errorf("failed to listen on %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			log.Warn().Msgf("relay: failed to shutdown: %v", err)
		}
	}()

	log.Info().Msgf("relay: listening on %s", ln.Addr())

	err := srv.Serve(ln)
	if err != nil && !xerrors.Is(err, http.ErrServerClosed) {
		return xerrors.Errorf("relay stopped: %w", err)
	}

	<-done
	return nil
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request) {
	sender, tag, ok := params(w, r, "sender", "tag")
	if !ok {
		return
	}

	payload, ok := readBody(w, r)
	if !ok {
		return
	}

	err := s.board.Publish(sender, tag, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	s.messages.WithLabelValues("public").Inc()
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) retrievePublic(w http.ResponseWriter, r *http.Request) {
	sender, tag, ok := params(w, r, "sender", "tag")
	if !ok {
		return
	}

	payload, err := s.board.RetrievePublic(r.Context(), sender, tag)
	if err != nil {
		writeError(w, err)
		return
	}

	writePayload(w, payload)
}

func (s *Server) sendPrivate(w http.ResponseWriter, r *http.Request) {
	sender, receiver, ok := params(w, r, "sender", "receiver")
	if !ok {
		return
	}

	payload, ok := readBody(w, r)
	if !ok {
		return
	}

	err := s.board.SendPrivate(sender, receiver, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	s.messages.WithLabelValues("private").Inc()
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) retrievePrivate(w http.ResponseWriter, r *http.Request) {
	sender, receiver, ok := params(w, r, "sender", "receiver")
	if !ok {
		return
	}

	payload, err := s.board.RetrievePrivate(r.Context(), sender, receiver)
	if err != nil {
		writeError(w, err)
		return
	}

	writePayload(w, payload)
}

func (s *Server) triplet(w http.ResponseWriter, r *http.Request) {
	participant, opID, ok := params(w, r, "participant", "opID")
	if !ok {
		return
	}

	triplet, err := s.generator.RetrieveShare(participant, opID)
	if err != nil {
		writeError(w, err)
		return
	}

	msg := types.TripletSharesMessage{
		OpID: opID,
		A:    triplet.A.Bytes(),
		B:    triplet.B.Bytes(),
		C:    triplet.C.Bytes(),

		Participants: triplet.Participants,
	}

	buf, err := types.Marshal(msg)
	if err != nil {
		writeError(w, err)
		return
	}

	s.messages.WithLabelValues("triplet").Inc()
	writePayload(w, buf)
}

func (s *Server) participants(w http.ResponseWriter, r *http.Request) {
	msg := types.ParticipantsMessage{Participants: s.generator.Participants()}

	buf, err := types.Marshal(msg)
	if err != nil {
		writeError(w, err)
		return
	}

	writePayload(w, buf)
}

// params returns the two unescaped url parameters.
func params(w http.ResponseWriter, r *http.Request, first, second string) (string, string, bool) {
	a, err := url.PathUnescape(chi.URLParam(r, first))
	if err != nil {
		http.Error(w, "bad "+first, http.StatusBadRequest)
		return "", "", false
	}

	b, err := url.PathUnescape(chi.URLParam(r, second))
	if err != nil {
		http.Error(w, "bad "+second, http.StatusBadRequest)
		return "", "", false
	}

	return a, b, true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayloadSize))
	if err != nil {
		http.Error(w, "failed to read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return payload, true
}

func writePayload(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(payload)
	if err != nil {
		log.Warn().Msgf("relay: failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError

	switch {
	case xerrors.Is(err, transport.ErrAlreadyPublished):
		code = http.StatusConflict
	case xerrors.Is(err, ttp.ErrUnknownParticipant):
		code = http.StatusNotFound
	case xerrors.Is(err, context.Canceled), xerrors.Is(err, context.DeadlineExceeded):
		// the client is gone or the relay is stopping
		code = http.StatusServiceUnavailable
	}

	http.Error(w, err.Error(), code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("relay request")
	})
}
