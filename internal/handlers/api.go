package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mvickers/guesslet/internal/session"
	"github.com/mvickers/guesslet/internal/upstream"
)

func jsonEncode(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// apiGameSession is the JSON-route counterpart of requireGame: a missing
// game session is a 400 payload, not a redirect.
func (s *Server) apiGameSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess := s.currentSession(w, r)
	if sess.GameSessionID == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no active game session"})
		return nil, false
	}
	return sess, true
}

// writeUpstreamError relays an upstream failure as the uniform JSON shape.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, upstream.ErrNotConfigured) {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, upstream.ErrorPayload(err))
}

func decodeBody(r *http.Request) map[string]any {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		return map[string]any{}
	}
	return body
}

// handleAPIAnswer relays an answer upstream. When the reply signals that an
// inline ("sneaky") guess was confirmed, the client is told to navigate to
// the result page; otherwise the next question state comes back.
func (s *Server) handleAPIAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.apiGameSession(w, r)
	if !ok {
		return
	}

	body := decodeBody(r)
	answerPath := fmt.Sprintf("/answer/%s", sess.GameSessionID)
	resp, err := s.Upstream.Post(r.Context(), answerPath, body)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	if stringField(resp, "status") == "correct" {
		if animal := stringField(resp, "animal"); animal != "" {
			sess.LastGuess = animal
		}
		s.saveSession(r, sess)
		s.writeJSON(w, http.StatusOK, map[string]any{"redirect": "/guess_result"})
		return
	}

	question, err := s.Upstream.Get(r.Context(), questionPath(sess.GameSessionID))
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	cacheQuestionState(sess, question)
	s.saveSession(r, sess)
	s.writeJSON(w, http.StatusOK, question)
}

// handleAPIRejectGuess tells the game server its guess was wrong.
func (s *Server) handleAPIRejectGuess(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.apiGameSession(w, r)
	if !ok {
		return
	}

	animal := stringField(decodeBody(r), "animal_name")
	if animal == "" {
		animal = sess.LastGuess
	}

	rejectPath := fmt.Sprintf("/reject/%s", sess.GameSessionID)
	resp, err := s.Upstream.Post(r.Context(), rejectPath, map[string]any{"animal_name": animal})
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleAPIContinue resumes questioning after a rejected guess.
func (s *Server) handleAPIContinue(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.apiGameSession(w, r)
	if !ok {
		return
	}

	continuePath := fmt.Sprintf("/continue/%s", sess.GameSessionID)
	resp, err := s.Upstream.Post(r.Context(), continuePath, nil)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleAPIUndo rolls back the last answer. The reply is question-shaped, so
// the session cache is refreshed exactly as /play does.
func (s *Server) handleAPIUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.apiGameSession(w, r)
	if !ok {
		return
	}

	undoPath := fmt.Sprintf("/undo/%s", sess.GameSessionID)
	resp, err := s.Upstream.Post(r.Context(), undoPath, nil)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	cacheQuestionState(sess, resp)
	s.saveSession(r, sess)
	s.writeJSON(w, http.StatusOK, resp)
}
