package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/teascroll/internal/relay"
	"github.com/dgallion1/teascroll/internal/upstream"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type askRequest struct {
	Question string `json:"question"`
}

// handleAsk relays one streamed answer as newline-delimited JSON. Every
// failure before the upstream stream opens gets a single {"error"} body.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	// Room for the JSON envelope around the question.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxQuestionBytes+1024)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		s.reject(w, "invalid request body", http.StatusBadRequest)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.reject(w, "question is required", http.StatusBadRequest)
		return
	}
	if int64(len(question)) > s.cfg.MaxQuestionBytes {
		s.reject(w, fmt.Sprintf("question exceeds %d bytes", s.cfg.MaxQuestionBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if s.client == nil {
		s.reject(w, "chat is not configured", http.StatusServiceUnavailable)
		return
	}

	if s.asks != nil {
		if !s.asks.TryAcquire(1) {
			s.reject(w, "too many questions in flight, try again shortly", http.StatusServiceUnavailable)
			return
		}
		defer s.asks.Release(1)
	}

	streamID := uuid.NewString()
	log := s.log.With("stream_id", streamID, "request_id", middleware.GetReqID(r.Context()))
	start := time.Now()

	stream, err := s.client.Open(r.Context(), question)
	if err != nil {
		if errors.Is(err, upstream.ErrEmptyQuestion) {
			s.reject(w, "question is required", http.StatusBadRequest)
			return
		}
		log.Warn("upstream open failed", "error", err)
		s.metrics.AskFinished(string(relay.OutcomeFailed))
		jsonError(w, "upstream unavailable", http.StatusBadGateway)
		return
	}

	// The server write timeout would cut long answers short.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	w.Header().Set("X-Stream-ID", streamID)

	outcome := s.relay.With(log).Run(r.Context(), stream, relay.NewEmitter(w))
	s.metrics.AskFinished(string(outcome))
	log.Info("ask finished",
		"outcome", outcome,
		"question_bytes", len(question),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (s *Server) reject(w http.ResponseWriter, msg string, code int) {
	s.metrics.AskFinished("rejected")
	jsonError(w, msg, code)
}
