package middlewares

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"SisContratacoes/api"
	"SisContratacoes/api/constants"
	"SisContratacoes/api/uam/permissions"
)

// RequirePermission rejects callers whose access level does not grant action.
// It must run after Authenticate.
func RequirePermission(action permissions.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := api.IdentityFromCtx(r.Context())
			if id == nil {
				api.RespondWithError(w, http.StatusUnauthorized, constants.ErrMissingToken)
				return
			}
			if !permissions.Allowed(id.NivelAcesso, action) {
				log.Ctx(r.Context()).Warn().
					Str("nivel_acesso", id.NivelAcesso).
					Str("action", string(action)).
					Msg("permission denied")
				api.RespondWithError(w, http.StatusForbidden, constants.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Guard wraps a handler func with RequirePermission.
func Guard(action permissions.Action, h http.HandlerFunc) http.Handler {
	return RequirePermission(action)(h)
}
