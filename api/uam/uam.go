// Package uam serves authentication, account administration and access
// requests.
package uam

import (
	"net/http"

	"github.com/gorilla/mux"

	"SisContratacoes/api/constants"
	"SisContratacoes/api/middlewares"
	"SisContratacoes/api/uam/permissions"
	"SisContratacoes/api/uam/role"
	"SisContratacoes/api/uam/user"
)

type Deps struct {
	Users    user.Repository
	Requests role.Repository
	Tokens   user.TokenIssuer
	Auth     func(http.Handler) http.Handler
}

func Routes(r *mux.Router, d Deps) {
	guard := func(action permissions.Action, h http.HandlerFunc) http.Handler {
		return d.Auth(middlewares.Guard(action, h))
	}

	/*auth*/
	r.Handle("/auth/login", user.Login(d.Users, d.Tokens)).Methods(http.MethodPost)
	r.Handle("/auth/register", user.Register(d.Users)).Methods(http.MethodPost)
	r.Handle("/auth/me", guard(permissions.ReadAll, user.Me(d.Users))).Methods(http.MethodGet)
	r.Handle("/auth/permissions", guard(permissions.ReadAll, permissions.GetRolePermissionsJson())).Methods(http.MethodGet)

	/*users*/
	r.Handle("/usuarios", guard(permissions.UsersAdmin, user.ListUsers(d.Users))).Methods(http.MethodGet)
	r.Handle("/usuarios/{id}", guard(permissions.UsersAdmin, user.GetUser(d.Users))).Methods(http.MethodGet)
	r.Handle("/usuarios/{id}", guard(permissions.UsersAdmin, user.UpdateUser(d.Users))).Methods(http.MethodPut)
	r.Handle("/usuarios/{id}", guard(permissions.UsersAdmin, user.DeleteUser(d.Users))).Methods(http.MethodDelete)

	/*access requests*/
	r.Handle("/access-requests", guard(permissions.ReadAll, role.CreateRequest(d.Requests))).Methods(http.MethodPost)
	r.Handle("/access-requests", guard(permissions.AccessRequestsAdmin, role.ListRequests(d.Requests, ""))).Methods(http.MethodGet)
	r.Handle("/access-requests/my-requests", guard(permissions.ReadAll, role.MyRequests(d.Requests))).Methods(http.MethodGet)
	r.Handle("/access-requests/pending", guard(permissions.AccessRequestsAdmin, role.ListRequests(d.Requests, constants.AccessRequestPendente))).Methods(http.MethodGet)
	r.Handle("/access-requests/approve-multiple", guard(permissions.AccessRequestsAdmin, role.DecideMultiple(d.Requests, true))).Methods(http.MethodPost)
	r.Handle("/access-requests/reject-multiple", guard(permissions.AccessRequestsAdmin, role.DecideMultiple(d.Requests, false))).Methods(http.MethodPost)
	r.Handle("/access-requests/{id}", guard(permissions.AccessRequestsAdmin, role.GetRequest(d.Requests))).Methods(http.MethodGet)
	r.Handle("/access-requests/{id}", guard(permissions.AccessRequestsAdmin, role.DeleteRequest(d.Requests))).Methods(http.MethodDelete)
	r.Handle("/access-requests/{id}/approve", guard(permissions.AccessRequestsAdmin, role.Decide(d.Requests, true))).Methods(http.MethodPost)
	r.Handle("/access-requests/{id}/reject", guard(permissions.AccessRequestsAdmin, role.Decide(d.Requests, false))).Methods(http.MethodPost)
}
