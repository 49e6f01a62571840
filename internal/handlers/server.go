// Package handlers wires every browser-facing route: HTML pages, the JSON
// API used by in-page script, the crowd-submission forms, and the moderator
// panel.
package handlers

import (
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mvickers/guesslet/internal/config"
	"github.com/mvickers/guesslet/internal/database"
	"github.com/mvickers/guesslet/internal/session"
	"github.com/mvickers/guesslet/internal/upstream"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	sessionCookie = "guesslet_session"
	modCookie     = "mod_token"
	flashCookie   = "guesslet_flash"
)

// Server holds every dependency the routes need. DB may be nil when no
// database was configured; the moderator panel degrades accordingly.
type Server struct {
	Config   *config.Config
	Log      *logrus.Logger
	Sessions *session.Store
	Upstream *upstream.Client
	DB       *database.Store

	tmpl *template.Template
}

func NewServer(cfg *config.Config, log *logrus.Logger, sessions *session.Store, up *upstream.Client, db *database.Store) *Server {
	return &Server{
		Config:   cfg,
		Log:      log,
		Sessions: sessions,
		Upstream: up,
		DB:       db,
		tmpl:     template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Routes builds the full route table.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// pages
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /start", s.handleStart)
	mux.HandleFunc("GET /play", s.handlePlay)
	mux.HandleFunc("GET /guess_result", s.handleGuessResult)
	mux.HandleFunc("GET /isitthis", s.handleIsItThis)
	mux.HandleFunc("GET /this", s.handleThis)
	mux.HandleFunc("GET /confirm_win", s.handleConfirmWin)
	mux.HandleFunc("POST /confirm_win", s.handleConfirmWin)
	mux.HandleFunc("GET /learn", s.handleLearnForm)
	mux.HandleFunc("POST /learn", s.handleLearnSubmit)
	mux.HandleFunc("GET /thank_you", s.handleThankYou)
	mux.HandleFunc("GET /add_questions/{animal}", s.handleAddQuestions)
	mux.HandleFunc("GET /teach_me/{animal}", s.handleTeachMe)

	// form submissions
	mux.HandleFunc("POST /submit_question", s.handleSubmitQuestion)
	mux.HandleFunc("POST /submit_teaching", s.handleSubmitTeaching)

	// script-facing JSON API
	mux.HandleFunc("POST /api/answer", s.handleAPIAnswer)
	mux.HandleFunc("POST /api/reject_guess", s.handleAPIRejectGuess)
	mux.HandleFunc("POST /api/continue_game", s.handleAPIContinue)
	mux.HandleFunc("POST /api/undo", s.handleAPIUndo)

	// moderator panel
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /mod", s.handleModPanel)
	mux.HandleFunc("GET /mod/approve/{featureID}", s.handleApproveFeature)
	mux.HandleFunc("GET /mod/reject/{featureID}", s.handleRejectFeature)
	mux.HandleFunc("GET /mod/approve/item/{itemID}", s.handleApproveItem)
	mux.HandleFunc("GET /mod/reject/item/{itemID}", s.handleRejectItem)

	return mux
}

// currentSession loads the browser's session, minting a fresh one (and its
// cookie) when none exists yet. Sessions are only persisted on saveSession,
// so a mint with no follow-up write costs nothing.
func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if sess, err := s.Sessions.Get(r.Context(), c.Value); err == nil {
			return sess
		}
	}
	sess := &session.Session{ID: uuid.NewString()}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
	})
	return sess
}

func (s *Server) saveSession(r *http.Request, sess *session.Session) {
	if err := s.Sessions.Save(r.Context(), sess); err != nil {
		s.Log.WithError(err).Error("failed to save session")
	}
}

// render writes a template with the popped flash message injected.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	s.renderStatus(w, r, http.StatusOK, name, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = s.popFlash(w, r)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.Log.WithError(err).WithField("template", name).Error("failed to render template")
	}
}

// renderError is the HTML-route error surface: one page, message + details.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message, details string) {
	s.renderStatus(w, r, status, "error.html", map[string]any{
		"Message": message,
		"Details": details,
	})
}

// renderUpstreamError maps an upstream client failure onto the error page.
func (s *Server) renderUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	payload := upstream.ErrorPayload(err)
	status := http.StatusBadGateway
	if errors.Is(err, upstream.ErrNotConfigured) {
		status = http.StatusServiceUnavailable
	}
	message, _ := payload["error"].(string)
	details, _ := payload["details"].(string)
	s.renderError(w, r, status, message, details)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonEncode(w, payload); err != nil {
		s.Log.WithError(err).Error("failed to write JSON response")
	}
}

// setFlash stores a one-shot message in a short-lived cookie, the stand-in
// for a flashed template message across a redirect.
func (s *Server) setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.URLEncoding.EncodeToString([]byte(msg)),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	decoded, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// stringField pulls a string out of a decoded JSON payload, or "".
func stringField(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}

// predictionsFromPayload converts the upstream top_predictions value, a JSON
// array of {item, score} objects, into typed predictions. Malformed entries
// are dropped rather than failing the whole page.
func predictionsFromPayload(v any) []session.Prediction {
	entries, ok := v.([]any)
	if !ok {
		return nil
	}
	var preds []session.Prediction
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		item, ok := m["item"].(string)
		if !ok {
			continue
		}
		score, _ := m["score"].(float64)
		preds = append(preds, session.Prediction{Item: item, Score: score})
	}
	return preds
}

// stringsFromPayload converts a JSON array of strings, dropping non-strings.
func stringsFromPayload(v any) []string {
	entries, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range entries {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// cacheQuestionState mirrors a question-shaped upstream payload into the
// session, keeping /play, /api/answer, and /api/undo consistent.
func cacheQuestionState(sess *session.Session, payload map[string]any) {
	sess.TopPredictions = predictionsFromPayload(payload["top_predictions"])
	sess.LastGuess = stringField(payload, "guess")
}

// requireGame redirects to the start page when no game is in progress.
func (s *Server) requireGame(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess := s.currentSession(w, r)
	if sess.GameSessionID == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	}
	return sess, true
}

func questionPath(gameSessionID string) string {
	return fmt.Sprintf("/question/%s", gameSessionID)
}
