package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mvickers/guesslet/internal/config"
	"github.com/mvickers/guesslet/internal/session"
	"github.com/mvickers/guesslet/internal/upstream"
)

// newTestServer builds a Server against a miniredis-backed session store and
// the given upstream base URL. No database; moderator routes degrade the way
// they do in production without one.
func newTestServer(t *testing.T, upstreamURL string) (*Server, *session.Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := session.NewStore(&session.Config{
		RedisClient: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		GameServerURL: upstreamURL,
		SessionSecret: "test-secret",
		Port:          5001,
	}

	return NewServer(cfg, logger, store, upstream.New(upstreamURL), nil), store
}

// seedSession persists a session and returns the cookie referencing it.
func seedSession(t *testing.T, store *session.Store, sess *session.Session) *http.Cookie {
	t.Helper()
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	require.NoError(t, store.Save(t.Context(), sess))
	return &http.Cookie{Name: sessionCookie, Value: sess.ID}
}

// flashMessage decodes the one-shot flash cookie set on a response.
func flashMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge >= 0 {
			decoded, err := base64.URLEncoding.DecodeString(c.Value)
			require.NoError(t, err)
			return string(decoded)
		}
	}
	return ""
}
