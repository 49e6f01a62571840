package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mvickers/guesslet/internal/auth"
	"github.com/mvickers/guesslet/internal/database"
	"github.com/mvickers/guesslet/internal/models"
)

// requireMod verifies the signed moderator cookie. Every moderator route
// checks this before touching the database; without it the user lands back
// on the login page.
func (s *Server) requireMod(w http.ResponseWriter, r *http.Request) (string, bool) {
	c, err := r.Cookie(modCookie)
	if err != nil || c.Value == "" {
		s.setFlash(w, "You must be logged in to access the mod panel.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return "", false
	}
	username, err := auth.VerifyModToken(s.Config.SessionSecret, c.Value)
	if err != nil {
		s.Log.WithError(err).Debug("rejected mod token")
		s.setFlash(w, "You must be logged in to access the mod panel.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return "", false
	}
	return username, true
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login.html", nil)
}

// handleLogin authenticates a moderator against the stored argon2id hash and
// hands out the signed session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		s.renderStatus(w, r, http.StatusServiceUnavailable, "login.html", map[string]any{
			"Flash": "Database client is not configured. Cannot log in.",
		})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		s.renderStatus(w, r, http.StatusBadRequest, "login.html", map[string]any{
			"Flash": "Username and password are required.",
		})
		return
	}

	mod, err := s.DB.GetModeratorByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, database.ErrModeratorNotFound) {
			s.renderStatus(w, r, http.StatusUnauthorized, "login.html", map[string]any{
				"Flash": "Invalid username or password.",
			})
			return
		}
		s.Log.WithError(err).Error("login lookup failed")
		s.renderStatus(w, r, http.StatusInternalServerError, "login.html", map[string]any{
			"Flash": "An error occurred during login. Check logs.",
		})
		return
	}

	match, err := auth.ComparePasswordAndHash(password, mod.PasswordHash)
	if err != nil {
		s.Log.WithError(err).WithField("username", username).Error("stored password hash is malformed")
		s.renderStatus(w, r, http.StatusInternalServerError, "login.html", map[string]any{
			"Flash": "An error occurred during login. Check logs.",
		})
		return
	}
	if !match {
		s.renderStatus(w, r, http.StatusUnauthorized, "login.html", map[string]any{
			"Flash": "Invalid username or password.",
		})
		return
	}

	token, err := auth.CreateModToken(s.Config.SessionSecret, mod.Username)
	if err != nil {
		s.Log.WithError(err).Error("failed to create mod token")
		s.renderStatus(w, r, http.StatusInternalServerError, "login.html", map[string]any{
			"Flash": "An error occurred during login. Check logs.",
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     modCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	s.setFlash(w, "Login successful!")
	http.Redirect(w, r, "/mod", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: modCookie, Path: "/", MaxAge: -1})
	s.setFlash(w, "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleModPanel lists suggested features and items. Per-table fetch errors
// degrade to a flash; the page still renders with whatever was fetched.
func (s *Server) handleModPanel(w http.ResponseWriter, r *http.Request) {
	username, ok := s.requireMod(w, r)
	if !ok {
		return
	}

	data := map[string]any{
		"Username": username,
		"Features": []models.SuggestedFeature(nil),
		"Items":    []models.SuggestedItem(nil),
	}

	if s.DB == nil {
		data["Flash"] = "Database client is not configured. Mod panel is unavailable."
		s.renderStatus(w, r, http.StatusServiceUnavailable, "mod.html", data)
		return
	}

	var problems []string
	if features, err := s.DB.ListSuggestedFeatures(r.Context()); err != nil {
		s.Log.WithError(err).Error("failed to fetch suggested features")
		problems = append(problems, "Error fetching features.")
	} else {
		data["Features"] = features
	}
	if items, err := s.DB.ListSuggestedItems(r.Context()); err != nil {
		s.Log.WithError(err).Error("failed to fetch suggested items")
		problems = append(problems, "Error fetching suggested items.")
	} else {
		data["Items"] = items
	}
	if len(problems) > 0 {
		data["Flash"] = strings.Join(problems, " ")
	}

	s.render(w, r, "mod.html", data)
}

// modMutation wraps the shared shape of the approve/reject routes: session
// check, configured DB, uuid path id, one mutation, flash, redirect.
func (s *Server) modMutation(w http.ResponseWriter, r *http.Request, idParam, successMsg, failureMsg string,
	mutate func(id uuid.UUID) error) {

	if _, ok := s.requireMod(w, r); !ok {
		return
	}
	if s.DB == nil {
		s.setFlash(w, "Database client is not configured.")
		http.Redirect(w, r, "/mod", http.StatusSeeOther)
		return
	}

	id, err := uuid.Parse(r.PathValue(idParam))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := mutate(id); err != nil {
		s.Log.WithError(err).WithField("id", id).Error(failureMsg)
		s.setFlash(w, failureMsg)
	} else {
		s.setFlash(w, successMsg)
	}
	http.Redirect(w, r, "/mod", http.StatusSeeOther)
}

func (s *Server) handleApproveFeature(w http.ResponseWriter, r *http.Request) {
	s.modMutation(w, r, "featureID",
		"Feature approved successfully.", "Error approving feature.",
		func(id uuid.UUID) error { return s.DB.ApproveFeature(r.Context(), id) })
}

func (s *Server) handleRejectFeature(w http.ResponseWriter, r *http.Request) {
	s.modMutation(w, r, "featureID",
		"Feature rejected and deleted.", "Error rejecting feature.",
		func(id uuid.UUID) error { return s.DB.RejectFeature(r.Context(), id) })
}

func (s *Server) handleApproveItem(w http.ResponseWriter, r *http.Request) {
	s.modMutation(w, r, "itemID",
		"Item approved successfully.", "Error approving item.",
		func(id uuid.UUID) error { return s.DB.ApproveItem(r.Context(), id) })
}

func (s *Server) handleRejectItem(w http.ResponseWriter, r *http.Request) {
	s.modMutation(w, r, "itemID",
		"Item rejected and deleted (along with its feature links).", "Error rejecting item.",
		func(id uuid.UUID) error { return s.DB.RejectItem(r.Context(), id) })
}
