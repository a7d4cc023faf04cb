package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"slotguard/internal/consensus"
	"slotguard/internal/monitor"
	"slotguard/internal/verify"
)

const maxBatchSize = 50

type errorResponse struct {
	Error string `json:"error"`
}

type verifyRequest struct {
	Signature string `json:"signature"`
}

type batchRequest struct {
	Signatures []string `json:"signatures"`
}

type batchEntry struct {
	Signature string         `json:"signature"`
	Result    *verify.Result `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type healthResponse struct {
	Health      monitor.NetworkHealth `json:"health"`
	Operational bool                  `json:"operational"`
	Network     string                `json:"network,omitempty"`
	Sources     int                   `json:"sources"`
	HighestSlot uint64                `json:"highest_slot"`
	CheckedAt   time.Time             `json:"checked_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.opts.Health.Health()
	observations := s.opts.Health.Observations()

	var highest uint64
	for _, obs := range observations {
		if obs.Slot > highest {
			highest = obs.Slot
		}
	}

	status := http.StatusOK
	if health == monitor.Halted {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Health:      health,
		Operational: health.IsOperational(),
		Network:     s.opts.Network,
		Sources:     len(observations),
		HighestSlot: highest,
		CheckedAt:   time.Now().UTC(),
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	s.verifyAndRespond(w, r, req.Signature)
}

func (s *Server) handleVerifySignature(w http.ResponseWriter, r *http.Request) {
	signature := mux.Vars(r)["signature"]
	s.verifyAndRespond(w, r, signature)
}

func (s *Server) verifyAndRespond(w http.ResponseWriter, r *http.Request, signature string) {
	result, err := s.opts.Verifier.Verify(r.Context(), signature)
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleVerifyBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if len(req.Signatures) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "signatures must not be empty"})
		return
	}
	if len(req.Signatures) > maxBatchSize {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "batch size exceeds limit"})
		return
	}

	outcomes := s.opts.Verifier.VerifyBatch(r.Context(), req.Signatures)
	entries := make([]batchEntry, 0, len(outcomes))
	for _, outcome := range outcomes {
		entry := batchEntry{Signature: outcome.Signature, Result: outcome.Result}
		if outcome.Err != nil {
			entry.Error = outcome.Err.Error()
		}
		entries = append(entries, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": entries})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
}

// statusForError maps pipeline failures onto HTTP semantics: caller mistakes
// are 4xx, upstream consensus trouble is a gateway problem, a halted network
// is temporary unavailability.
func statusForError(err error) int {
	var consensusErr *consensus.Error
	switch {
	case errors.Is(err, verify.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, verify.ErrNetworkHalted):
		return http.StatusServiceUnavailable
	case errors.As(err, &consensusErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
