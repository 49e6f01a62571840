package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvickers/guesslet/internal/session"
)

func postForm(srv *Server, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)
	return w
}

func TestTeachingAllIdkMakesNoUpstreamCalls(t *testing.T) {
	var calls atomic.Int64
	game := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer game.Close()

	srv, store := newTestServer(t, game.URL)
	cookie := seedSession(t, store, &session.Session{DomainName: "animals"})

	form := url.Values{
		"animal_name":     {"Wombat"},
		"answer_has_fur":  {"idk"},
		"answer_can_fly":  {"idk"},
		"answer_lays_egg": {"idk"},
	}
	w := postForm(srv, "/submit_teaching", form, cookie)

	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/thank_you", w.Header().Get("Location"))
	require.Equal(t, int64(0), calls.Load())
	require.Contains(t, flashMessage(t, w), "Submitted 0 answer(s).")
}

func TestTeachingFansOutPerAnsweredFeature(t *testing.T) {
	var bodies []map[string]any
	game := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/suggest_feature", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer game.Close()

	srv, store := newTestServer(t, game.URL)
	cookie := seedSession(t, store, &session.Session{DomainName: "animals"})

	form := url.Values{
		"animal_name":      {"Wombat"},
		"answer_has_fur":   {"yes"},
		"question_has_fur": {"Does it have fur?"},
		"answer_can_fly":   {"no"},
		"question_can_fly": {"Can it fly?"},
		"answer_is_big":    {"idk"},
	}
	w := postForm(srv, "/submit_teaching", form, cookie)

	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, bodies, 2)
	require.Contains(t, flashMessage(t, w), "Submitted 2 answer(s).")

	// answers are processed in sorted feature order
	require.Equal(t, "can_fly", bodies[0]["feature_name"])
	require.Equal(t, 0.0, bodies[0]["fuzzy_value"])
	require.Equal(t, "Can it fly?", bodies[0]["question_text"])
	require.Equal(t, "has_fur", bodies[1]["feature_name"])
	require.Equal(t, 1.0, bodies[1]["fuzzy_value"])
	for _, b := range bodies {
		require.Equal(t, "Wombat", b["item_name"])
		require.Equal(t, "animals", b["domain_name"])
	}
}

func TestTeachingRejectsUnknownAnswerBeforeSubmitting(t *testing.T) {
	var calls atomic.Int64
	game := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer game.Close()

	srv, store := newTestServer(t, game.URL)
	cookie := seedSession(t, store, &session.Session{DomainName: "animals"})

	form := url.Values{
		"animal_name":    {"Wombat"},
		"answer_has_fur": {"yes"},
		"answer_can_fly": {"maybe"}, // outside the vocabulary
	}
	w := postForm(srv, "/submit_teaching", form, cookie)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int64(0), calls.Load(), "nothing may be submitted when any answer is invalid")
}

func TestSubmitQuestionCollectsPartialFailures(t *testing.T) {
	game := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["item_name"] == "Cat" {
			http.Error(w, "storage failure", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer game.Close()

	srv, store := newTestServer(t, game.URL)
	cookie := seedSession(t, store, &session.Session{DomainName: "animals"})

	form := url.Values{
		"feature_name":  {"is_nocturnal"},
		"question_text": {"Is it nocturnal?"},
		"answer_Cat":    {"yes"},
		"answer_Fox":    {"probably"},
	}
	w := postForm(srv, "/submit_question", form, cookie)

	// partial failure still lands on the thank-you page
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/thank_you", w.Header().Get("Location"))

	flash := flashMessage(t, w)
	require.Contains(t, flash, "Submitted 1 answer(s).")
	require.Contains(t, flash, "1 submission(s) failed")
	require.Contains(t, flash, "Cat")
}

func TestSubmitQuestionWithoutDomainRedirects(t *testing.T) {
	srv, _ := newTestServer(t, "http://game.invalid")

	form := url.Values{
		"feature_name":  {"is_nocturnal"},
		"question_text": {"Is it nocturnal?"},
	}
	w := postForm(srv, "/submit_question", form, nil)

	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}
