package stream

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/chronofs/chronofs/journal"
	"github.com/chronofs/chronofs/util"
)

// Checkouter applies a snapshot switch to the working copy, returning the
// paths left unclean by it. The FUSE layer implements this.
type Checkouter interface {
	Checkout(to util.Hash) (util.PathSet, error)
}

// Server exposes the journal over HTTP: checkpoint queries, incremental
// change summaries and a websocket feed of live publications.
type Server struct {
	journal  *journal.Journal
	hub      *Hub
	checkout Checkouter
	subID    uint64
}

var upgrader = websocket.Upgrader{
	// The daemon binds to loopback by default; the feed carries no
	// secrets beyond what the mount itself exposes.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewServer wires a journal (and an optional checkout target) into an
// HTTP surface. Close releases the journal subscription.
func NewServer(j *journal.Journal, checkout Checkouter) *Server {
	s := &Server{
		journal:  j,
		hub:      NewHub(),
		checkout: checkout,
	}
	s.subID = j.Subscribe(func(seq journal.SequenceNumber) {
		s.hub.Broadcast(uint64(seq))
	})
	return s
}

// Close detaches from the journal and disconnects all subscribers.
func (s *Server) Close() {
	s.journal.Unsubscribe(s.subID)
	s.hub.Close()
}

// Router returns the HTTP handler for the journal API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/v1/journal/latest", s.handleLatest)
	r.Get("/v1/journal/changes", s.handleChanges)
	r.Get("/v1/journal/subscribe", s.handleSubscribe)
	r.Post("/v1/checkout", s.handleCheckout)

	return r
}

// ChangeSummary is the wire form of a merged delta.
type ChangeSummary struct {
	FromSequence uint64   `json:"from_sequence"`
	ToSequence   uint64   `json:"to_sequence"`
	FromHash     string   `json:"from_hash,omitempty"`
	ToHash       string   `json:"to_hash,omitempty"`
	ChangedFiles []string `json:"changed_files"`
	CreatedFiles []string `json:"created_files"`
	RemovedFiles []string `json:"removed_files"`
	UncleanPaths []string `json:"unclean_paths"`
}

func summarize(d *journal.Delta) ChangeSummary {
	return ChangeSummary{
		FromSequence: uint64(d.FromSequence),
		ToSequence:   uint64(d.ToSequence),
		FromHash:     d.FromHash.String(),
		ToHash:       d.ToHash.String(),
		ChangedFiles: d.ChangedFiles.Strings(),
		CreatedFiles: d.CreatedFiles.Strings(),
		RemovedFiles: d.RemovedFiles.Strings(),
		UncleanPaths: d.UncleanPaths.Strings(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Notification{Sequence: uint64(s.journal.LatestSequence())})
}

// handleChanges answers "what changed since checkpoint N". No changes is
// 204, a stale checkpoint is 410 so the client knows a full resync is
// required, and a checkpoint ahead of the journal is the client's error.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing since parameter")
		return
	}
	since, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "since must be an unsigned integer")
		return
	}

	delta, err := s.journal.AccumulateRange(journal.SequenceNumber(since))
	switch {
	case errors.Is(err, journal.ErrTruncatedHistory):
		writeError(w, http.StatusGone, "history truncated; full resync required")
		return
	case errors.Is(err, journal.ErrFutureSequence):
		writeError(w, http.StatusBadRequest, "since is ahead of the journal")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if delta == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, summarize(delta))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	// Prime the subscriber with the current checkpoint so it can fetch
	// anything it missed before connecting.
	if err := ws.WriteJSON(Notification{Sequence: uint64(s.journal.LatestSequence())}); err != nil {
		ws.Close()
		return
	}
	s.hub.Register(ws)
}

type checkoutRequest struct {
	Hash string `json:"hash"`
}

type checkoutResponse struct {
	UncleanPaths []string `json:"unclean_paths"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if s.checkout == nil {
		writeError(w, http.StatusNotImplemented, "no working copy attached")
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Hash == "" {
		writeError(w, http.StatusBadRequest, "missing hash")
		return
	}
	unclean, err := s.checkout.Checkout(util.Hash(req.Hash))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{UncleanPaths: unclean.Strings()})
}
