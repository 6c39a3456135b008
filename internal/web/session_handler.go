package web

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/guard"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	From     string `json:"from,omitempty"`
}

type LoginResponseDTO struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

type SessionResponseDTO struct {
	Resolution string           `json:"resolution"`
	Identity   *domain.Identity `json:"user,omitempty"`
}

func sessionResponse(state session.State) SessionResponseDTO {
	return SessionResponseDTO{
		Resolution: state.Resolution.String(),
		Identity:   state.Identity,
	}
}

// GET /api/session
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, sessionResponse(s.session.State()))
}

// POST /api/session/login
//
// A rejected login answers 401 with the server's message; the session is
// unchanged. On success the redirect resumes the originally requested view.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		s.respondError(w, http.StatusBadRequest, "missing_credentials", "email and password are required")
		return
	}

	res := s.session.Login(r.Context(), req.Email, req.Password)
	if !res.Success {
		s.respondJSON(w, http.StatusUnauthorized, LoginResponseDTO{Success: false, Message: res.Message})
		return
	}
	s.respondJSON(w, http.StatusOK, LoginResponseDTO{
		Success:  true,
		Message:  res.Message,
		Redirect: guard.ResumeTarget(req.From),
	})
}

// POST /api/session/logout
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, sessionResponse(s.session.Logout()))
}

// POST /api/session/register
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	res := s.session.Register(r.Context(), reg)
	status := http.StatusCreated
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	s.respondJSON(w, status, res)
}
