package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"

	"github.com/jonathan/job-board-client/internal/guard"
	"github.com/jonathan/job-board-client/internal/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// isForm reports whether the request body is an HTML form submission.
func isForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && (mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data")
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

// handleLogin signs in with form or JSON credentials, sets the token cookie and
// logs the profile's session in.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if isForm(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := s.auth.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		s.failure(w, err)
		return
	}

	sess, err := s.session(r)
	if err != nil {
		s.failure(w, err)
		return
	}
	if err := sess.Login(r.Context(), token, user); err != nil {
		s.failure(w, err)
		return
	}

	s.setTokenCookie(w, token, int(s.cookieMaxAge.Seconds()))
	s.jsonResponse(w, http.StatusOK, types.LoginResponse{User: user, Token: token})
}

// handleRegister creates an account. The API's echo is returned as is.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := s.auth.Register(r.Context(), &req)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

// handleLogout ends the profile's session in every tab and drops the cookie.
// A profile issued with this request has no session to end.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !profileIssued(r.Context()) {
		sess, err := s.session(r)
		if err != nil {
			s.failure(w, err)
			return
		}
		sess.Logout(r.Context())
	}
	s.setTokenCookie(w, "", -1)
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// handleUnauthorized is where rejected navigations land.
func (s *Server) handleUnauthorized(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusUnauthorized, map[string]string{
		"error":   "unauthorized",
		"message": "sign in to view this page",
		"login":   "/auth/login",
	})
}

type meResponse struct {
	Authenticated bool        `json:"authenticated"`
	Initializing  bool        `json:"initializing"`
	User          *types.User `json:"user,omitempty"`
	DisplayName   string      `json:"display_name,omitempty"`
}

// handleMe reports the profile's session state. A profile issued with this
// request is signed out without building a session for it.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if profileIssued(r.Context()) {
		s.jsonResponse(w, http.StatusOK, meResponse{})
		return
	}
	sess, err := s.session(r)
	if err != nil {
		s.failure(w, err)
		return
	}
	st := sess.State()
	s.jsonResponse(w, http.StatusOK, meResponse{
		Authenticated: st.Authenticated(),
		Initializing:  st.Initializing,
		User:          st.User,
		DisplayName:   st.User.DisplayName(),
	})
}

// setTokenCookie writes the token cookie; maxAge < 0 deletes it.
func (s *Server) setTokenCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     guard.CookieName,
		Value:    url.QueryEscape(token),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
