package middlewares

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"SisContratacoes/api"
	"SisContratacoes/api/auth"
	"SisContratacoes/api/constants"
	"SisContratacoes/internal/validation"
)

// Authenticate verifies the bearer token and reloads the account it names.
// Requests from unknown or inactive accounts are rejected even when the token
// itself is still valid.
func Authenticate(tokens *auth.TokenService, db validation.Querier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(constants.HeaderAuthorization)
			if header == "" {
				api.RespondWithError(w, http.StatusUnauthorized, constants.ErrMissingToken)
				return
			}
			claims, err := tokens.Parse(header)
			if err != nil {
				log.Ctx(r.Context()).Debug().Err(err).Msg("token rejected")
				api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidToken)
				return
			}

			res, err := validation.PreValidateRequest(r.Context(), db, claims.Subject)
			if errors.Is(err, validation.ErrUserNotFound) {
				api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidToken)
				return
			}
			if err != nil {
				api.RespondWithAppError(w, r, err)
				return
			}
			if !res.Ativo {
				api.RespondWithError(w, http.StatusForbidden, constants.ErrInactiveUser)
				return
			}

			id := &auth.Identity{
				UserID:      res.UserID,
				Username:    res.Username,
				Email:       res.Email,
				NivelAcesso: res.NivelAcesso,
			}
			ctx := api.WithIdentity(r.Context(), id)
			logger := log.Ctx(ctx).With().Str("user", id.Username).Logger()
			next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx)))
		})
	}
}
