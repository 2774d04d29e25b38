package planning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"SisContratacoes/api"
	"SisContratacoes/api/constants"
	"SisContratacoes/api/planning/importer"
	"SisContratacoes/internal/apperrors"
	"SisContratacoes/internal/checksum"
	"SisContratacoes/internal/clock"
	"SisContratacoes/internal/logger"
)

// Importer runs an uploaded file through the reconciler.
type Importer interface {
	Import(ctx context.Context, raw []byte, format importer.Format, actorID string) (*importer.Result, error)
}

func pathID(r *http.Request) (string, error) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.Validation(constants.ErrInvalidID)
	}
	return id, nil
}

func classifyAll(rows []PCA, today time.Time) []PCA {
	for i := range rows {
		rows[i].Classify(today)
	}
	return rows
}

// ListPCAs serves GET /pca with skip, limit, atrasada and vencida filters.
func ListPCAs(repo Repository, clk clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit, err := api.Pagination(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		atrasada, err := api.OptionalBool(r, "atrasada")
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		vencida, err := api.OptionalBool(r, "vencida")
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		today := clk.Today()
		rows, err := repo.List(r.Context(), ListFilter{Skip: skip, Limit: limit, Atrasada: atrasada, Vencida: vencida, Today: today})
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithPayload(w, classifyAll(rows, today))
	}
}

// ListByStatus serves the fixed delayed and overdue lists.
func ListByStatus(repo Repository, clk clock.Clock, delayed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		yes := true
		today := clk.Today()
		f := ListFilter{Today: today}
		if delayed {
			f.Atrasada = &yes
		} else {
			f.Vencida = &yes
		}
		rows, err := repo.List(r.Context(), f)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithPayload(w, classifyAll(rows, today))
	}
}

func GetPCA(repo Repository, clk clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		p, err := repo.Get(r.Context(), id)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		p.Classify(clk.Today())
		api.RespondWithJSON(w, http.StatusOK, p)
	}
}

func CreatePCA(repo Repository, clk clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in PCAInput
		if err := api.DecodeJSON(r, &in); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		if err := in.ValidateCreate(); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		actor := api.IdentityFromCtx(r.Context())
		p, err := repo.Create(r.Context(), &in, actor.UserID)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		p.Classify(clk.Today())
		logger.Audit("pca %s created by %s", p.NumeroContratacao, actor.Username)
		api.RespondWithJSON(w, http.StatusCreated, p)
	}
}

func UpdatePCA(repo Repository, clk clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		var in PCAInput
		if err := api.DecodeJSON(r, &in); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		if err := in.ValidateUpdate(); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		actor := api.IdentityFromCtx(r.Context())
		p, err := repo.Update(r.Context(), id, &in, actor.UserID)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		p.Classify(clk.Today())
		logger.Audit("pca %s updated by %s", p.NumeroContratacao, actor.Username)
		api.RespondWithJSON(w, http.StatusOK, p)
	}
}

func DeletePCA(repo Repository) http.HandlerFunc {
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
		logger.Audit("pca %s deleted by %s", id, api.IdentityFromCtx(r.Context()).Username)
		api.RespondWithMessage(w, constants.SuccessDeleted)
	}
}

// DashboardStats serves GET /pca/dashboard/stats.
func DashboardStats(repo Repository, clk clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := repo.Stats(r.Context(), clk.Today())
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, st)
	}
}

type importResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	SHA256  string `json:"sha256"`
	*importer.Result
}

// ImportPCA serves POST /pca/import. The upload goes in the "file" field; an
// optional "sha256" field is checked against the received bytes.
func ImportPCA(imp Importer, maxUploadMB int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := maxUploadMB << 20
		r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
		if err := r.ParseMultipartForm(limit); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				api.RespondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf(constants.ErrUploadTooLarge, maxUploadMB))
				return
			}
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrMissingUpload)
			return
		}
		file, header, err := r.FormFile(constants.UploadFormField)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrMissingUpload)
			return
		}
		defer file.Close()

		format, err := importer.FormatFromFilename(header.Filename)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		raw, err := io.ReadAll(file)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		sum := checksum.Sum(raw)
		if declared := r.FormValue("sha256"); declared != "" {
			if ok, _ := checksum.NewChecksumMatcher(declared).Match(raw); !ok {
				api.RespondWithError(w, http.StatusBadRequest, "uploaded file does not match the declared sha256")
				return
			}
		}

		actor := api.IdentityFromCtx(r.Context())
		res, err := imp.Import(r.Context(), raw, format, actor.UserID)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		log.Ctx(r.Context()).Info().
			Str("file", header.Filename).
			Str("sha256", sum).
			Int("total", res.TotalRows).
			Msg("pca import finished")
		logger.Audit("pca import %s (%s) by %s: %d created, %d updated, %d failed",
			header.Filename, sum, actor.Username, res.CreatedCount, res.UpdatedCount, res.FailedCount)
		api.RespondWithJSON(w, http.StatusOK, importResponse{
			Success: true,
			Message: constants.SuccessImported,
			SHA256:  sum,
			Result:  res,
		})
	}
}
