package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"SisContratacoes/api/constants"
	"SisContratacoes/internal/apperrors"
	"SisContratacoes/internal/config"
	"SisContratacoes/internal/validation"
)

// RespondWithError writes {"success":false,"error":msg} with the given status.
func RespondWithError(w http.ResponseWriter, status int, errMsg string) {
	log.Error().Int("status", status).Msg(errMsg)
	RespondWithJSON(w, status, map[string]interface{}{
		constants.ValueSuccess: false,
		constants.ValueError:   errMsg,
	})
}

// RespondWithAppError maps err to its HTTP status. Internal errors are logged
// and reported with a generic message.
func RespondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		RespondWithJSON(w, status, map[string]interface{}{
			constants.ValueSuccess: false,
			constants.ValueError:   constants.ErrInternalServer,
		})
		return
	}
	log.Ctx(r.Context()).Warn().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request rejected")
	RespondWithJSON(w, status, map[string]interface{}{
		constants.ValueSuccess: false,
		constants.ValueError:   err.Error(),
	})
}

// RespondWithPayload sends {"success":true,"rows":payload}.
func RespondWithPayload(w http.ResponseWriter, payload interface{}) {
	resp := map[string]interface{}{constants.ValueSuccess: true}
	if payload != nil {
		resp["rows"] = payload
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// RespondWithMessage sends {"success":true,"message":msg}.
func RespondWithMessage(w http.ResponseWriter, msg string) {
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		constants.ValueSuccess: true,
		constants.ValueMessage: msg,
	})
}

func RespondWithJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// DecodeJSON reads the body into dst and runs its validate tags.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation(constants.ErrInvalidJSON)
		}
		return apperrors.Validation("%s: %v", constants.ErrInvalidJSON, err).Wrap(err)
	}
	return validation.Struct(dst)
}

// Pagination parses skip and limit query parameters.
func Pagination(r *http.Request) (skip, limit int, err error) {
	limit = config.DefaultListLimit
	q := r.URL.Query()
	if s := q.Get("skip"); s != "" {
		skip, err = strconv.Atoi(s)
		if err != nil || skip < 0 {
			return 0, 0, apperrors.Validation(constants.ErrInvalidPagination)
		}
	}
	if s := q.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 0 {
			return 0, 0, apperrors.Validation(constants.ErrInvalidPagination)
		}
	}
	return skip, limit, nil
}

// OptionalBool parses a tri-state boolean query parameter.
func OptionalBool(r *http.Request, name string) (*bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, apperrors.Validation("%s", constants.FormatFieldError(name, "expected true or false"))
	}
	return &b, nil
}
