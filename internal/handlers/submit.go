package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// resolvedAnswer is one non-skipped form answer, ready to send upstream.
type resolvedAnswer struct {
	name  string
	value float64
}

// collectAnswers pulls every answer_<name> form field, resolves its fuzzy
// value, and drops skips. Validation is all-or-nothing: one unknown answer
// rejects the whole form before any upstream call is made.
func collectAnswers(form map[string][]string) ([]resolvedAnswer, error) {
	var names []string
	for key := range form {
		if strings.HasPrefix(key, "answer_") {
			names = append(names, strings.TrimPrefix(key, "answer_"))
		}
	}
	sort.Strings(names)

	var answers []resolvedAnswer
	for _, name := range names {
		raw := form["answer_"+name][0]
		value, skip, err := fuzzyValue(raw)
		if err != nil {
			return nil, fmt.Errorf("answer for %q: %w (%q)", name, err, raw)
		}
		if skip {
			continue
		}
		answers = append(answers, resolvedAnswer{name: name, value: value})
	}
	return answers, nil
}

// recoverToErrorPage keeps a panic inside a submission handler from taking
// down the worker; it surfaces as a generic error page instead.
func (s *Server) recoverToErrorPage(w http.ResponseWriter, r *http.Request) {
	if rec := recover(); rec != nil {
		s.Log.WithField("panic", rec).Error("submission handler panicked")
		s.renderError(w, r, http.StatusInternalServerError,
			"Something went wrong while submitting.", fmt.Sprint(rec))
	}
}

// suggestFeature sends one crowd suggestion upstream.
func (s *Server) suggestFeature(r *http.Request, domain, feature, question, item string, value float64) error {
	_, err := s.Upstream.Post(r.Context(), "/suggest_feature", map[string]any{
		"domain_name":   domain,
		"feature_name":  feature,
		"question_text": question,
		"item_name":     item,
		"fuzzy_value":   value,
	})
	return err
}

// submissionFlash reports the outcome: plain success count, with any
// per-item failures appended as a warning. Failures never roll back the
// submissions that went through.
func submissionFlash(submitted int, failures []string) string {
	msg := fmt.Sprintf("Submitted %d answer(s).", submitted)
	if len(failures) > 0 {
		msg += fmt.Sprintf(" Warning: %d submission(s) failed: %s",
			len(failures), strings.Join(failures, "; "))
	}
	return msg
}

// handleSubmitQuestion fans a new-question form out into one suggest_feature
// call per answered item.
func (s *Server) handleSubmitQuestion(w http.ResponseWriter, r *http.Request) {
	defer s.recoverToErrorPage(w, r)

	sess := s.currentSession(w, r)
	if sess.DomainName == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.", err.Error())
		return
	}

	feature := strings.TrimSpace(r.PostForm.Get("feature_name"))
	question := strings.TrimSpace(r.PostForm.Get("question_text"))
	if feature == "" || question == "" {
		s.renderError(w, r, http.StatusBadRequest,
			"A question and its feature name are both required.", "")
		return
	}

	answers, err := collectAnswers(r.PostForm)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid answer choice.", err.Error())
		return
	}

	var failures []string
	submitted := 0
	for _, a := range answers {
		if err := s.suggestFeature(r, sess.DomainName, feature, question, a.name, a.value); err != nil {
			s.Log.WithError(err).WithField("item", a.name).Warn("suggest_feature failed")
			failures = append(failures, a.name)
			continue
		}
		submitted++
	}

	s.setFlash(w, submissionFlash(submitted, failures))
	http.Redirect(w, r, "/thank_you", http.StatusSeeOther)
}

// handleSubmitTeaching fans a teaching form out into one suggest_feature
// call per answered existing question. Question text rides along in
// question_<feature> hidden fields.
func (s *Server) handleSubmitTeaching(w http.ResponseWriter, r *http.Request) {
	defer s.recoverToErrorPage(w, r)

	sess := s.currentSession(w, r)
	if sess.DomainName == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.", err.Error())
		return
	}

	animal := strings.TrimSpace(r.PostForm.Get("animal_name"))
	if animal == "" {
		s.renderError(w, r, http.StatusBadRequest, "An animal name is required.", "")
		return
	}

	answers, err := collectAnswers(r.PostForm)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid answer choice.", err.Error())
		return
	}

	var failures []string
	submitted := 0
	for _, a := range answers {
		question := r.PostForm.Get("question_" + a.name)
		if err := s.suggestFeature(r, sess.DomainName, a.name, question, animal, a.value); err != nil {
			s.Log.WithError(err).WithField("feature", a.name).Warn("suggest_feature failed")
			failures = append(failures, a.name)
			continue
		}
		submitted++
	}

	s.setFlash(w, submissionFlash(submitted, failures))
	http.Redirect(w, r, "/thank_you", http.StatusSeeOther)
}
