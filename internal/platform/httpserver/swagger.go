package httpserver

import "net/http"

// Hand-maintained OpenAPI summary served to the swagger UI. Kept to the
// route list; request/response shapes live in the transport DTO packages.
const swaggerDoc = `{
  "openapi": "3.0.0",
  "info": {
    "title": "Paideia Identity & Access API",
    "version": "1.0.0",
    "description": "Identity resolution, policy-scoped resource access, and user lifecycle."
  },
  "paths": {
    "/api/v1/auth/login": {"post": {"summary": "Issue a session for email/password credentials"}},
    "/api/v1/auth/logout": {"post": {"summary": "Revoke the current session"}},
    "/api/v1/auth/me": {"get": {"summary": "Resolve the calling principal"}},
    "/api/v1/users": {"post": {"summary": "Create a user with its role profile"}},
    "/api/v1/users/{user_id}": {
      "get": {"summary": "Fetch a user and its role profile"},
      "delete": {"summary": "Delete a user, cascading owned rows"}
    },
    "/api/v1/users/{user_id}/role": {"patch": {"summary": "Change a user's role atomically"}},
    "/api/v1/users/{user_id}/api-key/rotate": {"post": {"summary": "Issue a fresh API key"}},
    "/api/v1/users/{user_id}/api-key": {"patch": {"summary": "Enable or disable the stored API key"}},
    "/api/v1/audit/run": {"post": {"summary": "Run one user/profile consistency audit pass"}},
    "/api/v1/resources/{resource}": {
      "get": {"summary": "List rows within the caller's visibility scope"},
      "post": {"summary": "Create a row, defaulting ownership to the caller"}
    },
    "/api/v1/resources/{resource}/{row_id}": {
      "patch": {"summary": "Update a row within the caller's visibility scope"},
      "delete": {"summary": "Delete a row within the caller's visibility scope"}
    }
  }
}`

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(swaggerDoc))
}
