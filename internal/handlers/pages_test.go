package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvickers/guesslet/internal/session"
)

func TestPlayWithoutGameRedirectsToStart(t *testing.T) {
	srv, _ := newTestServer(t, "http://game.invalid")

	req := httptest.NewRequest(http.MethodGet, "/play", nil)
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}

func TestStartStoresSessionAndRedirects(t *testing.T) {
	game := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/start", r.URL.Path)
		w.Write([]byte(`{"session_id":"abc","domain_name":"animals"}`))
	}))
	defer game.Close()

	srv, store := newTestServer(t, game.URL)

	form := url.Values{"domain_name": {"animals"}}
	req := httptest.NewRequest(http.MethodPost, "/start", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/play", w.Header().Get("Location"))

	var sid string
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			sid = c.Value
		}
	}
	require.NotEmpty(t, sid, "start must mint a session cookie")

	sess, err := store.Get(t.Context(), sid)
	require.NoError(t, err)
	require.Equal(t, "abc", sess.GameSessionID)
	require.Equal(t, "animals", sess.DomainName)
}

func TestStartWithoutUpstreamConfigured(t *testing.T) {
	srv, _ := newTestServer(t, "")

	form := url.Values{"domain_name": {"animals"}}
	req := httptest.NewRequest(http.MethodPost, "/start", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "Game server is not configured.")
}

func TestPlayCachesQuestionState(t *testing.T) {
	game := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/question/abc", r.URL.Path)
		w.Write([]byte(`{
			"question_text": "Does it purr?",
			"guess": "Cat",
			"top_predictions": [{"item":"Cat","score":0.9},{"item":"Fox","score":0.2}]
		}`))
	}))
	defer game.Close()

	srv, store := newTestServer(t, game.URL)
	cookie := seedSession(t, store, &session.Session{GameSessionID: "abc", DomainName: "animals"})

	req := httptest.NewRequest(http.MethodGet, "/play", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Does it purr?")

	sess, err := store.Get(t.Context(), cookie.Value)
	require.NoError(t, err)
	require.Equal(t, "Cat", sess.LastGuess)
	require.Len(t, sess.TopPredictions, 2)
	require.Equal(t, 0.2, sess.TopPredictions[1].Score)
}

func TestPlaySurfacesUpstreamError(t *testing.T) {
	game := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session expired upstream", http.StatusNotFound)
	}))
	defer game.Close()

	srv, store := newTestServer(t, game.URL)
	cookie := seedSession(t, store, &session.Session{GameSessionID: "gone"})

	req := httptest.NewRequest(http.MethodGet, "/play", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "session expired upstream")
}

func TestIsItThisFiltersRejectedGuess(t *testing.T) {
	srv, store := newTestServer(t, "http://game.invalid")
	cookie := seedSession(t, store, &session.Session{
		GameSessionID: "abc",
		LastGuess:     "Dog",
		TopPredictions: []session.Prediction{
			{Item: "Cat", Score: 0.5},
			{Item: "dOg", Score: 0.4}, // differs only in case from the rejected guess
			{Item: "Fox", Score: 0.3},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/isitthis", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "/this?animal=Cat")
	require.Contains(t, body, "/this?animal=Fox")
	require.NotContains(t, body, "/this?animal=dOg")
}

func TestIndexClearsGameButKeepsDomain(t *testing.T) {
	srv, store := newTestServer(t, "")
	cookie := seedSession(t, store, &session.Session{
		GameSessionID: "abc",
		DomainName:    "animals",
		LastGuess:     "Cat",
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	sess, err := store.Get(t.Context(), cookie.Value)
	require.NoError(t, err)
	require.Empty(t, sess.GameSessionID)
	require.Empty(t, sess.LastGuess)
	require.Equal(t, "animals", sess.DomainName)
}

func TestConfirmWinClearsGameIDOnly(t *testing.T) {
	var winBody string
	game := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/win/abc", r.URL.Path)
		buf, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		winBody = string(buf)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer game.Close()

	srv, store := newTestServer(t, game.URL)
	cookie := seedSession(t, store, &session.Session{
		GameSessionID: "abc",
		DomainName:    "animals",
		LastGuess:     "Cat",
	})

	req := httptest.NewRequest(http.MethodGet, "/confirm_win?animal=Cat", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, winBody, `"animal_name":"Cat"`)

	sess, err := store.Get(t.Context(), cookie.Value)
	require.NoError(t, err)
	require.Empty(t, sess.GameSessionID)
	require.Equal(t, "animals", sess.DomainName)
}
