package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// handleIndex serves the landing page. Any in-progress game is dropped; the
// selected domain survives so the picker can preselect it.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w, r)
	if sess.GameSessionID != "" {
		sess.ClearGame()
		s.saveSession(r, sess)
	}

	// Domain list is decoration; the page still renders if the game server
	// is down or unconfigured.
	var domains []string
	if payload, err := s.Upstream.Get(r.Context(), "/domains"); err != nil {
		s.Log.WithError(err).Warn("failed to fetch domains")
	} else {
		domains = stringsFromPayload(payload["domains"])
	}

	s.render(w, r, "index.html", map[string]any{
		"Domains":        domains,
		"SelectedDomain": sess.DomainName,
	})
}

// handleStart opens a new game session upstream and stores its id.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w, r)

	domain := strings.TrimSpace(r.FormValue("domain_name"))
	if domain == "" {
		s.renderError(w, r, http.StatusBadRequest, "A domain must be selected.", "")
		return
	}

	payload, err := s.Upstream.Post(r.Context(), "/start", map[string]any{"domain_name": domain})
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}

	gameID := stringField(payload, "session_id")
	if gameID == "" {
		s.renderError(w, r, http.StatusBadGateway,
			"Upstream game server request failed", "start response carried no session_id")
		return
	}

	sess.GameSessionID = gameID
	sess.DomainName = domain
	if d := stringField(payload, "domain_name"); d != "" {
		sess.DomainName = d
	}
	sess.TopPredictions = nil
	sess.LastGuess = ""
	s.saveSession(r, sess)

	http.Redirect(w, r, "/play", http.StatusSeeOther)
}

// handlePlay fetches the next question and caches the prediction state.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireGame(w, r)
	if !ok {
		return
	}

	payload, err := s.Upstream.Get(r.Context(), questionPath(sess.GameSessionID))
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	if e := stringField(payload, "error"); e != "" {
		s.renderError(w, r, http.StatusBadGateway, "Upstream game server request failed", e)
		return
	}

	cacheQuestionState(sess, payload)
	s.saveSession(r, sess)

	s.render(w, r, "play.html", map[string]any{
		"Domain":   sess.DomainName,
		"Question": payload,
		"Guess":    sess.LastGuess,
	})
}

// handleGuessResult shows the guess the game server committed to.
func (s *Server) handleGuessResult(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireGame(w, r)
	if !ok {
		return
	}
	s.render(w, r, "guess_result.html", map[string]any{
		"Guess":  sess.LastGuess,
		"Domain": sess.DomainName,
	})
}

// handleIsItThis lists the remaining candidates after a rejected guess. The
// rejected guess itself is filtered out, compared case-insensitively.
func (s *Server) handleIsItThis(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireGame(w, r)
	if !ok {
		return
	}

	rejected := strings.ToLower(sess.LastGuess)
	var remaining []map[string]any
	for _, p := range sess.TopPredictions {
		if strings.ToLower(p.Item) == rejected {
			continue
		}
		remaining = append(remaining, map[string]any{"Item": p.Item, "Score": p.Score})
	}

	s.render(w, r, "isitthis.html", map[string]any{
		"Predictions": remaining,
		"Rejected":    sess.LastGuess,
	})
}

// handleThis confirms a candidate the user picked off the isitthis list. The
// pick becomes the session's last guess so confirm_win reports the right one.
func (s *Server) handleThis(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireGame(w, r)
	if !ok {
		return
	}

	animal := strings.TrimSpace(r.URL.Query().Get("animal"))
	if animal != "" && animal != sess.LastGuess {
		sess.LastGuess = animal
		s.saveSession(r, sess)
	}

	s.render(w, r, "this.html", map[string]any{
		"Animal": sess.LastGuess,
	})
}

// handleConfirmWin reports the confirmed animal to the game server, then
// clears the game id. The domain persists for follow-up flows.
func (s *Server) handleConfirmWin(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireGame(w, r)
	if !ok {
		return
	}

	animal := strings.TrimSpace(r.FormValue("animal"))
	if animal == "" {
		animal = sess.LastGuess
	}

	winPath := fmt.Sprintf("/win/%s", sess.GameSessionID)
	if _, err := s.Upstream.Post(r.Context(), winPath, map[string]any{"animal_name": animal}); err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}

	sess.ClearGame()
	s.saveSession(r, sess)

	s.render(w, r, "confirm_win.html", map[string]any{
		"Animal": animal,
		"Domain": sess.DomainName,
	})
}

// handleLearnForm shows the "tell us what it was" form after a lost game.
func (s *Server) handleLearnForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireGame(w, r)
	if !ok {
		return
	}
	s.render(w, r, "learn.html", map[string]any{
		"Domain": sess.DomainName,
		"Guess":  sess.LastGuess,
	})
}

// handleLearnSubmit forwards the correct animal for learning and ends the game.
func (s *Server) handleLearnSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireGame(w, r)
	if !ok {
		return
	}

	animal := strings.TrimSpace(r.FormValue("animal_name"))
	if animal == "" {
		s.renderError(w, r, http.StatusBadRequest, "An animal name is required.", "")
		return
	}

	learnPath := fmt.Sprintf("/learn/%s", sess.GameSessionID)
	if _, err := s.Upstream.Post(r.Context(), learnPath, map[string]any{"animal_name": animal}); err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}

	sess.ClearGame()
	s.saveSession(r, sess)

	s.setFlash(w, fmt.Sprintf("Thanks for teaching us about %s!", animal))
	http.Redirect(w, r, "/thank_you", http.StatusSeeOther)
}

func (s *Server) handleThankYou(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "thank_you.html", nil)
}

// handleAddQuestions renders the new-question form: the user invents a
// question, then answers it for each active item in the domain.
func (s *Server) handleAddQuestions(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w, r)
	if sess.DomainName == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	animal := r.PathValue("animal")

	payload, err := s.Upstream.Get(r.Context(), fmt.Sprintf("/items_for_questions/%s", url.PathEscape(sess.DomainName)))
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}

	s.render(w, r, "add_questions.html", map[string]any{
		"Animal": animal,
		"Domain": sess.DomainName,
		"Items":  stringsFromPayload(payload["items"]),
	})
}

// handleTeachMe renders the teaching form: existing questions the game server
// wants answered for the given animal.
func (s *Server) handleTeachMe(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w, r)
	if sess.DomainName == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	animal := r.PathValue("animal")

	path := fmt.Sprintf("/features_for_data_collection/%s?item_name=%s",
		url.PathEscape(sess.DomainName), url.QueryEscape(animal))
	payload, err := s.Upstream.Get(r.Context(), path)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}

	// features arrive as [{feature_name, question_text}, ...]
	var features []map[string]any
	if entries, ok := payload["features"].([]any); ok {
		for _, e := range entries {
			if m, ok := e.(map[string]any); ok {
				features = append(features, m)
			}
		}
	}

	s.render(w, r, "teach_me.html", map[string]any{
		"Animal":   animal,
		"Domain":   sess.DomainName,
		"Features": features,
	})
}
