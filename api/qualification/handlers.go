package qualification

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"SisContratacoes/api"
	"SisContratacoes/api/constants"
	"SisContratacoes/internal/apperrors"
	"SisContratacoes/internal/clock"
	"SisContratacoes/internal/logger"
)

func pathID(r *http.Request) (string, error) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.Validation(constants.ErrInvalidID)
	}
	return id, nil
}

func statusParam(r *http.Request) (string, error) {
	s := strings.TrimSpace(r.URL.Query().Get("status"))
	switch s {
	case "", constants.QualificacaoEmAnalise, constants.QualificacaoConcluido:
		return s, nil
	}
	return "", apperrors.Validation("%s", constants.FormatFieldError("status", "unknown status"))
}

// ListQualificacoes serves GET /qualificacao with skip, limit and status.
func ListQualificacoes(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit, err := api.Pagination(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		st, err := statusParam(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		rows, err := repo.List(r.Context(), ListFilter{Skip: skip, Limit: limit, Status: st})
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithPayload(w, rows)
	}
}

// ListConcluidas serves the finished dossiers, the ones a bidding process
// may be opened for.
func ListConcluidas(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := repo.List(r.Context(), ListFilter{Status: constants.QualificacaoConcluido})
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithPayload(w, rows)
	}
}

func ListByPCA(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		numero := strings.TrimSpace(mux.Vars(r)["numero"])
		rows, err := repo.List(r.Context(), ListFilter{NumeroContratacao: numero})
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithPayload(w, rows)
	}
}

func GetQualificacao(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		q, err := repo.Get(r.Context(), id)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, q)
	}
}

// CreateQualificacao serves POST /qualificacao. The ano defaults to the
// current year.
func CreateQualificacao(repo Repository, clk clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in Input
		if err := api.DecodeJSON(r, &in); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		if err := in.ValidateCreate(); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		actor := api.IdentityFromCtx(r.Context())
		q, err := repo.Create(r.Context(), &in, clk.Today().Year(), actor.UserID)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		logger.Audit("qualificacao %s created by %s", q.Nup, actor.Username)
		api.RespondWithJSON(w, http.StatusCreated, q)
	}
}

func UpdateQualificacao(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		var in Input
		if err := api.DecodeJSON(r, &in); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		if err := in.ValidateUpdate(); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		actor := api.IdentityFromCtx(r.Context())
		q, err := repo.Update(r.Context(), id, &in, actor.UserID)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		logger.Audit("qualificacao %s updated by %s", q.Nup, actor.Username)
		api.RespondWithJSON(w, http.StatusOK, q)
	}
}

func DeleteQualificacao(repo Repository) http.HandlerFunc {
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
		logger.Audit("qualificacao %s deleted by %s", id, api.IdentityFromCtx(r.Context()).Username)
		api.RespondWithMessage(w, constants.SuccessDeleted)
	}
}

func DashboardStats(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := repo.Stats(r.Context())
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, st)
	}
}
