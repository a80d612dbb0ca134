package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	policyports "paideia/contexts/identity-access/access-policy-service/ports"
	policyhttp "paideia/contexts/identity-access/access-policy-service/transport/http"
)

// Reserved list parameters; every other query parameter is an equality
// filter on the named column.
const (
	paramOrderBy = "order_by"
	paramDesc    = "desc"
	paramLimit   = "limit"
	paramOffset  = "offset"
)

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	resource := r.PathValue("resource")

	query := policyports.ResourceQuery{Filters: map[string]any{}}
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		switch key {
		case paramOrderBy:
			query.OrderBy = values[0]
		case paramDesc:
			query.Desc = values[0] == "true"
		case paramLimit:
			limit, err := strconv.Atoi(values[0])
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
				return
			}
			query.Limit = limit
		case paramOffset:
			offset, err := strconv.Atoi(values[0])
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
				return
			}
			query.Offset = offset
		default:
			query.Filters[key] = values[0]
		}
	}

	rows, err := s.policy.Service.List(r.Context(), principal, resource, query)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if rows == nil {
		rows = []policyports.Row{}
	}
	writeJSON(w, http.StatusOK, policyhttp.ListResourcesResponse{
		Resource: resource,
		Rows:     rows,
	})
}

func (s *Server) handleCreateResource(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	resource := r.PathValue("resource")

	var row policyports.Row
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	stored, err := s.policy.Service.Create(r.Context(), principal, resource, row)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, policyhttp.CreateResourceResponse{
		Resource: resource,
		Row:      stored,
	})
}

func (s *Server) handleUpdateResource(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	resource := r.PathValue("resource")
	rowID := r.PathValue("row_id")

	var changes policyports.Row
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.policy.Service.Update(r.Context(), principal, resource, rowID, changes); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	resource := r.PathValue("resource")
	rowID := r.PathValue("row_id")

	if err := s.policy.Service.Delete(r.Context(), principal, resource, rowID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
