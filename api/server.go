// Package api exposes the webmail core over HTTP with JSON payloads and
// HMAC-signed cookie sessions.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rbaliyan/webmail"
	"github.com/rbaliyan/webmail/identity"
)

// Server routes webmail HTTP requests.
// The authenticated user is established once per request from the session
// cookie and passed explicitly into every core call.
type Server struct {
	svc      webmail.Service
	users    identity.Store
	sessions *SessionManager
	logger   *slog.Logger
	mux      *http.ServeMux
	handler  http.Handler
}

// NewServer creates an HTTP server over the given service and identity store.
func NewServer(svc webmail.Service, users identity.Store, sessions *SessionManager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:      svc,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("/me", s.handleMe)
	mux.HandleFunc("/emails", s.handleCompose)
	mux.HandleFunc("/emails/", s.handleEmail)
	mux.HandleFunc("/health", s.handleHealth)
	s.mux = mux
	s.handler = withRequestID(mux)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// --- Account handlers ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusBadRequest, "POST request required.")
		return
	}
	var payload struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		Confirmation string `json:"confirmation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON.")
		return
	}
	if payload.Confirmation != "" && payload.Password != payload.Confirmation {
		s.respondError(w, http.StatusBadRequest, "Passwords must match.")
		return
	}

	u, err := s.users.Register(r.Context(), payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrDuplicateEmail):
			s.respondError(w, http.StatusBadRequest, "Email address already taken.")
		case errors.Is(err, identity.ErrWeakPassword),
			errors.Is(err, identity.ErrMissingField),
			errors.Is(err, identity.ErrInvalidEmail):
			s.respondError(w, http.StatusBadRequest, err.Error())
		default:
			s.requestLogger(r).Error("register failed", "error", err)
			s.respondError(w, http.StatusInternalServerError, "Unable to register.")
		}
		return
	}

	now := time.Now()
	token, err := s.sessions.Issue(u.ID, now)
	if err != nil {
		s.requestLogger(r).Error("issue session failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Unable to create session.")
		return
	}
	s.setSessionCookie(w, token, now)
	s.respondJSON(w, http.StatusCreated, map[string]any{"id": u.ID, "email": u.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusBadRequest, "POST request required.")
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON.")
		return
	}

	u, err := s.users.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			s.respondError(w, http.StatusUnauthorized, "Invalid email and/or password.")
			return
		}
		s.requestLogger(r).Error("login failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Unable to log in.")
		return
	}

	now := time.Now()
	token, err := s.sessions.Issue(u.ID, now)
	if err != nil {
		s.requestLogger(r).Error("issue session failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Unable to create session.")
		return
	}
	s.setSessionCookie(w, token, now)
	s.respondJSON(w, http.StatusOK, map[string]any{"id": u.ID, "email": u.Email})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusBadRequest, "POST request required.")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.sessions.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusBadRequest, "GET request required.")
		return
	}
	userID, err := s.sessionUser(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}
	u, err := s.users.Get(r.Context(), userID)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"id": u.ID, "email": u.Email})
}

// --- Email handlers ---

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusBadRequest, "POST request required.")
		return
	}
	userID, err := s.sessionUser(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	var payload struct {
		Recipients string `json:"recipients"`
		Subject    string `json:"subject"`
		Body       string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON.")
		return
	}

	_, err = s.svc.Client(userID).Compose(r.Context(), payload.Recipients, payload.Subject, payload.Body)
	if err != nil {
		if ure, ok := webmail.IsUnknownRecipient(err); ok {
			s.respondError(w, http.StatusBadRequest,
				"User with email "+ure.Email+" does not exist.")
			return
		}
		switch {
		case errors.Is(err, webmail.ErrNoRecipients):
			s.respondError(w, http.StatusBadRequest, "At least one recipient required.")
		case errors.Is(err, webmail.ErrSubjectTooLong),
			errors.Is(err, webmail.ErrBodyTooLarge),
			errors.Is(err, webmail.ErrTooManyRecipients):
			s.respondError(w, http.StatusBadRequest, err.Error())
		default:
			s.requestLogger(r).Error("compose failed", "error", err, "user_id", userID)
			s.respondError(w, http.StatusInternalServerError, "Unable to send email.")
		}
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]string{"message": "Email sent successfully."})
}

// handleEmail dispatches /emails/{id} and /emails/{mailbox}.
// A numeric tail is an entry ID; anything else is a mailbox name.
func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	userID, err := s.sessionUser(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	tail := strings.TrimPrefix(r.URL.Path, "/emails/")
	if tail == "" || strings.Contains(tail, "/") {
		http.NotFound(w, r)
		return
	}

	if entryID, err := strconv.ParseInt(tail, 10, 64); err == nil {
		s.handleEntry(w, r, userID, entryID)
		return
	}

	s.handleMailbox(w, r, userID, tail)
}

func (s *Server) handleMailbox(w http.ResponseWriter, r *http.Request, userID int64, mailbox string) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusBadRequest, "GET request required.")
		return
	}

	msgs, err := s.svc.Client(userID).List(r.Context(), mailbox)
	if err != nil {
		if errors.Is(err, webmail.ErrInvalidMailbox) {
			s.respondError(w, http.StatusBadRequest, "Invalid mailbox.")
			return
		}
		s.requestLogger(r).Error("list mailbox failed", "error", err, "mailbox", mailbox)
		s.respondError(w, http.StatusInternalServerError, "Unable to list emails.")
		return
	}

	views, err := webmail.Views(r.Context(), msgs)
	if err != nil {
		s.requestLogger(r).Error("render mailbox failed", "error", err, "mailbox", mailbox)
		s.respondError(w, http.StatusInternalServerError, "Unable to list emails.")
		return
	}
	s.respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request, userID, entryID int64) {
	mb := s.svc.Client(userID)

	switch r.Method {
	case http.MethodGet:
		msg, err := mb.Get(r.Context(), entryID)
		if err != nil {
			s.respondEntryError(w, r, err, "load")
			return
		}
		view, err := msg.View(r.Context())
		if err != nil {
			s.requestLogger(r).Error("render email failed", "error", err, "entry_id", entryID)
			s.respondError(w, http.StatusInternalServerError, "Unable to load email.")
			return
		}
		s.respondJSON(w, http.StatusOK, view)

	case http.MethodPut:
		var payload struct {
			Read     *bool `json:"read"`
			Archived *bool `json:"archived"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid JSON.")
			return
		}
		flags := webmail.Flags{Read: payload.Read, Archived: payload.Archived}
		if err := mb.UpdateFlags(r.Context(), entryID, flags); err != nil {
			s.respondEntryError(w, r, err, "update")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := mb.Delete(r.Context(), entryID); err != nil {
			s.respondEntryError(w, r, err, "delete")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		s.respondError(w, http.StatusBadRequest, "GET, PUT, or DELETE request required.")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.svc.IsConnected() {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "disconnected"})
}

// --- Helpers ---

func (s *Server) respondEntryError(w http.ResponseWriter, r *http.Request, err error, verb string) {
	if errors.Is(err, webmail.ErrNotFound) || errors.Is(err, webmail.ErrInvalidID) {
		s.respondError(w, http.StatusNotFound, "Email not found.")
		return
	}
	s.requestLogger(r).Error("entry operation failed", "error", err, "op", verb)
	s.respondError(w, http.StatusInternalServerError, "Unable to "+verb+" email.")
}

// requestLogger returns the server logger with the request id attached.
func (s *Server) requestLogger(r *http.Request) *slog.Logger {
	if id := RequestIDFromContext(r.Context()); id != "" {
		return s.logger.With("request_id", id)
	}
	return s.logger
}

func (s *Server) sessionUser(r *http.Request) (int64, error) {
	cookie, err := r.Cookie(s.sessions.CookieName())
	if err != nil {
		return 0, ErrInvalidSession
	}
	return s.sessions.Parse(cookie.Value, time.Now())
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.sessions.CookieName(),
		Value:    token,
		Path:     "/",
		Expires:  now.Add(s.sessions.MaxAge()),
		MaxAge:   int(s.sessions.MaxAge() / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
