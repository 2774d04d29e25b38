// Package permissions holds the role to action matrix. Access levels are fixed,
// so the matrix lives in code rather than in a roles table.
package permissions

import (
	"net/http"
	"sort"

	"SisContratacoes/api"
	"SisContratacoes/api/constants"
)

type Action string

const (
	ReadAll             Action = "read"
	PlanningWrite       Action = "pca:write"
	PlanningImport      Action = "pca:import"
	QualificationWrite  Action = "qualificacao:write"
	BiddingWrite        Action = "licitacao:write"
	ReportsRead         Action = "reports:read"
	UsersAdmin          Action = "usuarios:admin"
	AccessRequestsAdmin Action = "solicitacoes:admin"
)

var matrix = map[Action][]string{
	ReadAll:             constants.AllRoles,
	ReportsRead:         constants.AllRoles,
	PlanningWrite:       {constants.RoleCoordenador, constants.RoleDiplan},
	PlanningImport:      {constants.RoleCoordenador, constants.RoleDiplan},
	QualificationWrite:  {constants.RoleCoordenador, constants.RoleDiquali},
	BiddingWrite:        {constants.RoleCoordenador, constants.RoleDipli},
	UsersAdmin:          {constants.RoleCoordenador},
	AccessRequestsAdmin: {constants.RoleCoordenador},
}

// Allowed reports whether an access level may perform action.
func Allowed(nivelAcesso string, action Action) bool {
	for _, r := range matrix[action] {
		if r == nivelAcesso {
			return true
		}
	}
	return false
}

// ForRole lists the actions granted to an access level, sorted.
func ForRole(nivelAcesso string) []string {
	out := make([]string, 0, len(matrix))
	for action := range matrix {
		if Allowed(nivelAcesso, action) {
			out = append(out, string(action))
		}
	}
	sort.Strings(out)
	return out
}

// IsRole reports whether s is a known access level.
func IsRole(s string) bool {
	for _, r := range constants.AllRoles {
		if r == s {
			return true
		}
	}
	return false
}

// GetRolePermissionsJson returns the caller's access level and granted actions.
func GetRolePermissionsJson() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := api.IdentityFromCtx(r.Context())
		if id == nil {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrMissingToken)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			constants.ValueSuccess: true,
			"nivel_acesso":         id.NivelAcesso,
			"permissions":          ForRole(id.NivelAcesso),
		})
	}
}
