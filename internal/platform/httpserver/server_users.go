package httpserver

import (
	"encoding/json"
	"net/http"

	policyentities "paideia/contexts/identity-access/access-policy-service/domain/entities"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
	"paideia/contexts/identity-access/profile-lifecycle-service/application/commands"
	"paideia/contexts/identity-access/profile-lifecycle-service/ports"
	lifecyclehttp "paideia/contexts/identity-access/profile-lifecycle-service/transport/http"
)

// authorizeUsers evaluates the users policy for the caller and reports
// whether the operation may proceed. A FilterBy decision restricts the
// caller to its own user row; rowID is empty for create.
func (s *Server) authorizeUsers(
	w http.ResponseWriter,
	principal identityentities.Principal,
	op policyentities.Operation,
	rowID string,
) bool {
	decision, err := s.policy.Service.Evaluate(principal, "users", op)
	if err != nil {
		s.writeDomainError(w, err)
		return false
	}
	switch {
	case decision.Allowed():
		return true
	case decision.Filtered() && rowID != "" && rowID == principal.ID:
		return true
	case principal.IsAnonymous():
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return false
	default:
		writeError(w, http.StatusForbidden, "forbidden", "operation not permitted")
		return false
	}
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	if !s.authorizeUsers(w, principal, policyentities.OperationCreate, "") {
		return
	}

	var req lifecyclehttp.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	result, err := s.lifecycle.CreateUser.Execute(r.Context(), commands.CreateUserCommand{
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   req.Password,
		Role:       req.Role,
		WithAPIKey: req.WithAPIKey,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	resp := userResponse(result.User, ports.UserView{})
	resp.RawAPIKey = result.RawAPIKey
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	userID := r.PathValue("user_id")
	if !s.authorizeUsers(w, principal, policyentities.OperationRead, userID) {
		return
	}

	view, err := s.lifecycle.GetUser.Execute(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(view.User, view))
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	if !s.authorizeUsers(w, principal, policyentities.OperationUpdate, "") {
		return
	}

	var req lifecyclehttp.ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	user, err := s.lifecycle.ChangeRole.Execute(r.Context(), commands.ChangeRoleCommand{
		UserID:  r.PathValue("user_id"),
		NewRole: req.Role,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user, ports.UserView{}))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	if !s.authorizeUsers(w, principal, policyentities.OperationDelete, "") {
		return
	}

	err := s.lifecycle.DeleteUser.Execute(r.Context(), commands.DeleteUserCommand{
		UserID: r.PathValue("user_id"),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRotateAPIKey(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	if !s.authorizeUsers(w, principal, policyentities.OperationUpdate, "") {
		return
	}

	result, err := s.lifecycle.APIKeys.Rotate(r.Context(), commands.RotateAPIKeyCommand{
		UserID: r.PathValue("user_id"),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	resp := userResponse(result.User, ports.UserView{})
	resp.RawAPIKey = result.RawAPIKey
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetAPIKeyEnabled(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	if !s.authorizeUsers(w, principal, policyentities.OperationUpdate, "") {
		return
	}

	var req lifecyclehttp.SetAPIKeyEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	user, err := s.lifecycle.APIKeys.SetEnabled(r.Context(), commands.SetAPIKeyEnabledCommand{
		UserID:  r.PathValue("user_id"),
		Enabled: req.Enabled,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user, ports.UserView{}))
}

func (s *Server) handleRunAudit(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	if !s.authorizeUsers(w, principal, policyentities.OperationUpdate, "") {
		return
	}

	report, err := s.lifecycle.Auditor.RunOnce(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lifecyclehttp.AuditReportResponse{
		MissingFound: report.MissingFound,
		Repaired:     report.Repaired,
		Stale:        report.Stale,
		Failed:       report.Failed,
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
	})
}

func userResponse(user identityentities.User, view ports.UserView) lifecyclehttp.UserResponse {
	resp := lifecyclehttp.UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		FullName:      user.FullName,
		Role:          string(user.Role),
		IsActive:      user.IsActive,
		APIKeyEnabled: user.APIKeyEnabled,
		CreatedAt:     user.CreatedAt,
	}
	switch {
	case view.AdminProfile != nil:
		resp.Profile = &lifecyclehttp.ProfileResponse{
			ID:         view.AdminProfile.ID,
			AdminLevel: view.AdminProfile.AdminLevel,
			CreatedAt:  view.AdminProfile.CreatedAt,
		}
	case view.InstructorProfile != nil:
		resp.Profile = &lifecyclehttp.ProfileResponse{
			ID:        view.InstructorProfile.ID,
			StaffCode: view.InstructorProfile.StaffCode,
			CreatedAt: view.InstructorProfile.CreatedAt,
		}
	case view.TraineeProfile != nil:
		resp.Profile = &lifecyclehttp.ProfileResponse{
			ID:             view.TraineeProfile.ID,
			EnrollmentCode: view.TraineeProfile.EnrollmentCode,
			CreatedAt:      view.TraineeProfile.CreatedAt,
		}
	}
	return resp
}
