package httpserver

import (
	"encoding/json"
	"net/http"

	identityhttp "paideia/contexts/identity-access/identity-service/transport/http"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req identityhttp.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	session, err := s.identity.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, identityhttp.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		token = cookie.Value
	}
	if err := s.identity.Service.Logout(r.Context(), token); err != nil {
		s.writeDomainError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	if principal.IsAnonymous() {
		writeJSON(w, http.StatusOK, identityhttp.PrincipalResponse{Anonymous: true})
		return
	}
	writeJSON(w, http.StatusOK, identityhttp.PrincipalResponse{
		ID:       principal.ID,
		Role:     string(principal.Role),
		IsActive: principal.IsActive,
	})
}
