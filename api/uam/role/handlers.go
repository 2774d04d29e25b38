package role

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"SisContratacoes/api"
	"SisContratacoes/api/constants"
	"SisContratacoes/internal/apperrors"
	"SisContratacoes/internal/logger"
)

func pathID(r *http.Request) (string, error) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.Validation(constants.ErrInvalidID)
	}
	return id, nil
}

// decodeOptional reads an optional JSON body; an empty body leaves dst as is.
func decodeOptional(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	return api.DecodeJSON(r, dst)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CreateRequest serves POST /access-requests for the caller's own account.
func CreateRequest(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CreateInput
		if err := api.DecodeJSON(r, &in); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		actor := api.IdentityFromCtx(r.Context())
		ar, err := repo.Create(r.Context(), actor.UserID, &in)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		logger.Audit("access request %s: %s asks for %s", ar.ID, actor.Username, ar.NivelSolicitado)
		api.RespondWithJSON(w, http.StatusCreated, ar)
	}
}

func MyRequests(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := repo.ForUser(r.Context(), api.GetUserIDFromCtx(r.Context()))
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithPayload(w, rows)
	}
}

// ListRequests serves the admin lists. fixedStatus pins the status filter;
// otherwise the status query parameter is used.
func ListRequests(repo Repository, fixedStatus string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit, err := api.Pagination(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		status := fixedStatus
		if status == "" {
			status = strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
			switch status {
			case "", constants.AccessRequestPendente, constants.AccessRequestAprovada, constants.AccessRequestRejeitada:
			default:
				api.RespondWithAppError(w, r, apperrors.Validation("%s", constants.FormatFieldError("status", "unknown status")))
				return
			}
		}
		rows, err := repo.List(r.Context(), ListFilter{Skip: skip, Limit: limit, Status: status})
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithPayload(w, rows)
	}
}

func GetRequest(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		ar, err := repo.Get(r.Context(), id)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, ar)
	}
}

// Decide serves POST /access-requests/{id}/approve and /reject.
func Decide(repo Repository, approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		var in DecisionInput
		if err := decodeOptional(r, &in); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		actor := api.IdentityFromCtx(r.Context())
		rows, err := repo.Decide(r.Context(), []string{id}, approve, actor.UserID, in.ObservacoesAdmin)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		auditDecision(rows, approve, actor.Username)
		api.RespondWithJSON(w, http.StatusOK, rows[0])
	}
}

// DecideMultiple serves the bulk approve and reject endpoints. Either every
// listed request is closed or none is.
func DecideMultiple(repo Repository, approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in BulkDecisionInput
		if err := api.DecodeJSON(r, &in); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		actor := api.IdentityFromCtx(r.Context())
		rows, err := repo.Decide(r.Context(), dedupe(in.IDs), approve, actor.UserID, in.ObservacoesAdmin)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		auditDecision(rows, approve, actor.Username)
		api.RespondWithPayload(w, rows)
	}
}

func auditDecision(rows []AccessRequest, approve bool, admin string) {
	verb := "rejected"
	if approve {
		verb = "approved"
	}
	for _, ar := range rows {
		logger.Audit("access request %s (%s -> %s) %s by %s", ar.ID, ar.UserEmail, ar.NivelSolicitado, verb, admin)
	}
}

func DeleteRequest(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		if err := repo.Delete(r.Context(), id); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		logger.Audit("access request %s deleted by %s", id, api.IdentityFromCtx(r.Context()).Username)
		api.RespondWithMessage(w, constants.SuccessDeleted)
	}
}
