package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	accesspolicy "paideia/contexts/identity-access/access-policy-service"
	policyerrors "paideia/contexts/identity-access/access-policy-service/domain/errors"
	policyhttp "paideia/contexts/identity-access/access-policy-service/transport/http"
	identity "paideia/contexts/identity-access/identity-service"
	identityapp "paideia/contexts/identity-access/identity-service/application"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
	identityerrors "paideia/contexts/identity-access/identity-service/domain/errors"
	profilelifecycle "paideia/contexts/identity-access/profile-lifecycle-service"
	lifecycleerrors "paideia/contexts/identity-access/profile-lifecycle-service/domain/errors"
)

// SessionCookie carries the browser session token; API clients send the
// key in the Authorization header instead.
const SessionCookie = "paideia_session"

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	identity  identity.Module
	policy    accesspolicy.Module
	lifecycle *profilelifecycle.Module
}

func New(
	identityModule identity.Module,
	policyModule accesspolicy.Module,
	lifecycleModule *profilelifecycle.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		identity:  identityModule,
		policy:    policyModule,
		lifecycle: lifecycleModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)

	s.mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/v1/auth/me", s.handleMe)

	s.mux.HandleFunc("POST /api/v1/users", s.handleCreateUser)
	s.mux.HandleFunc("GET /api/v1/users/{user_id}", s.handleGetUser)
	s.mux.HandleFunc("PATCH /api/v1/users/{user_id}/role", s.handleChangeRole)
	s.mux.HandleFunc("DELETE /api/v1/users/{user_id}", s.handleDeleteUser)
	s.mux.HandleFunc("POST /api/v1/users/{user_id}/api-key/rotate", s.handleRotateAPIKey)
	s.mux.HandleFunc("PATCH /api/v1/users/{user_id}/api-key", s.handleSetAPIKeyEnabled)

	s.mux.HandleFunc("POST /api/v1/audit/run", s.handleRunAudit)

	s.mux.HandleFunc("GET /api/v1/resources/{resource}", s.handleListResources)
	s.mux.HandleFunc("POST /api/v1/resources/{resource}", s.handleCreateResource)
	s.mux.HandleFunc("PATCH /api/v1/resources/{resource}/{row_id}", s.handleUpdateResource)
	s.mux.HandleFunc("DELETE /api/v1/resources/{resource}/{row_id}", s.handleDeleteResource)
}

// principal resolves the caller from the session cookie or the
// Authorization header. Resolution never fails; unknown or expired
// credentials yield the anonymous principal and the policy layer decides
// what anonymous may do.
func (s *Server) principal(r *http.Request) identityentities.Principal {
	creds := identityapp.Credentials{
		Authorization: r.Header.Get("Authorization"),
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		creds.SessionToken = cookie.Value
	}
	return s.identity.Service.Resolve(r.Context(), creds)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, policyhttp.ErrorResponse{Code: code, Message: message})
}

// writeDomainError maps the sentinel errors of all three services onto HTTP
// statuses. Unanticipated errors surface as 500 without leaking detail.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var relationConflict *lifecycleerrors.RelationConflictError

	switch {
	case errors.Is(err, policyerrors.ErrUnauthenticated),
		errors.Is(err, identityerrors.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
	case errors.Is(err, policyerrors.ErrForbidden),
		errors.Is(err, identityerrors.ErrUserInactive):
		writeError(w, http.StatusForbidden, "forbidden", "operation not permitted")
	case errors.Is(err, policyerrors.ErrUnknownResource):
		writeError(w, http.StatusNotFound, "unknown_resource", "no such resource")
	case errors.Is(err, policyerrors.ErrRowNotFound),
		errors.Is(err, identityerrors.ErrUserNotFound),
		errors.Is(err, lifecycleerrors.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", "row not found")
	case errors.Is(err, policyerrors.ErrDuplicateRow),
		errors.Is(err, lifecycleerrors.ErrEmailTaken),
		errors.Is(err, lifecycleerrors.ErrProfileConflict):
		writeError(w, http.StatusConflict, "conflict", "conflicting row already exists")
	case errors.As(err, &relationConflict):
		writeError(w, http.StatusConflict, "relation_conflict", relationConflict.Error())
	case errors.Is(err, policyerrors.ErrInvalidQuery),
		errors.Is(err, policyerrors.ErrUnknownOperation),
		errors.Is(err, identityerrors.ErrInvalidRequest),
		errors.Is(err, lifecycleerrors.ErrInvalidRequest),
		errors.Is(err, lifecycleerrors.ErrInvalidRole),
		errors.Is(err, lifecycleerrors.ErrRoleNotKeyBearing),
		errors.Is(err, lifecycleerrors.ErrAPIKeyNotIssued):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("request failed",
			"event", "http_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
