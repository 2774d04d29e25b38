package bidding

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

func statusParam(r *http.Request) (string, error) {
	s := strings.TrimSpace(r.URL.Query().Get("status"))
	switch s {
	case "", constants.LicitacaoEmAndamento, constants.LicitacaoHomologada,
		constants.LicitacaoFracassada, constants.LicitacaoRevogada:
		return s, nil
	}
	return "", apperrors.Validation("%s", constants.FormatFieldError("status", "unknown status"))
}

func ListLicitacoes(repo Repository) http.HandlerFunc {
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

func GetLicitacao(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		l, err := repo.Get(r.Context(), id)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, l)
	}
}

// CreateLicitacao serves POST /licitacao. The NUP must name an existing
// qualification dossier.
func CreateLicitacao(repo Repository) http.HandlerFunc {
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
		l, err := repo.Create(r.Context(), &in, actor.UserID)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		logger.Audit("licitacao %s created by %s", l.Nup, actor.Username)
		api.RespondWithJSON(w, http.StatusCreated, l)
	}
}

func UpdateLicitacao(repo Repository) http.HandlerFunc {
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
		l, err := repo.Update(r.Context(), id, &in, actor.UserID)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		logger.Audit("licitacao %s updated by %s (status %s)", l.Nup, actor.Username, l.Status)
		api.RespondWithJSON(w, http.StatusOK, l)
	}
}

func DeleteLicitacao(repo Repository) http.HandlerFunc {
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
		logger.Audit("licitacao %s deleted by %s", id, api.IdentityFromCtx(r.Context()).Username)
		api.RespondWithMessage(w, constants.SuccessDeleted)
	}
}

func DashboardStats(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := repo.Counts(r.Context())
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, Summarize(c))
	}
}

// SavingsReportHandler serves GET /licitacao/economia/relatorio.
func SavingsReportHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := repo.WithSavings(r.Context())
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, BuildSavingsReport(rows))
	}
}
