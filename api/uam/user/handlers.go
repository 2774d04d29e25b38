package user

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"SisContratacoes/api"
	"SisContratacoes/api/auth"
	"SisContratacoes/api/constants"
	"SisContratacoes/api/uam/permissions"
	"SisContratacoes/internal/apperrors"
	"SisContratacoes/internal/logger"
	"SisContratacoes/internal/validation"
)

// TokenIssuer signs access tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, time.Time, error)
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *Usuario  `json:"user"`
}

// readCredentials accepts a JSON body or an OAuth2 style password form.
func readCredentials(r *http.Request) (LoginInput, error) {
	var in LoginInput
	ct := r.Header.Get(constants.ContentTypeText)
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, constants.ContentTypeMultipart) {
		if err := r.ParseForm(); err != nil {
			return in, apperrors.Validation(constants.ErrInvalidJSON).Wrap(err)
		}
		in.Username = r.PostFormValue("username")
		in.Password = r.PostFormValue("password")
		return in, validation.Struct(&in)
	}
	err := api.DecodeJSON(r, &in)
	return in, err
}

func pathID(r *http.Request) (string, error) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.Validation(constants.ErrInvalidID)
	}
	return id, nil
}

func identity(u *Usuario) auth.Identity {
	return auth.Identity{UserID: u.ID, Username: u.Username, Email: u.Email, NivelAcesso: u.NivelAcesso}
}

// Login serves POST /auth/login.
func Login(repo Repository, tokens TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := readCredentials(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		u, err := repo.ByUsername(r.Context(), strings.TrimSpace(in.Username))
		if errors.Is(err, ErrNotFound) {
			api.RespondWithAppError(w, r, auth.ErrInvalidCredentials)
			return
		}
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		if err := auth.CheckPassword(u.PasswordHash, in.Password); err != nil {
			logger.Audit("failed login for %s", u.Username)
			api.RespondWithAppError(w, r, err)
			return
		}
		if !u.Ativo {
			api.RespondWithError(w, http.StatusForbidden, constants.ErrInactiveUser)
			return
		}
		token, exp, err := tokens.Issue(identity(u))
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		logger.Audit("login %s", u.Username)
		api.RespondWithJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer", ExpiresAt: exp, User: u})
	}
}

// Register serves POST /auth/register. New accounts always start as
// VISITANTE; higher levels go through an access request.
func Register(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in RegisterInput
		if err := api.DecodeJSON(r, &in); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		in.Username = strings.TrimSpace(in.Username)
		in.Email = strings.ToLower(strings.TrimSpace(in.Email))
		in.NomeCompleto = strings.TrimSpace(in.NomeCompleto)
		if err := validation.Struct(&in); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		u, err := repo.Create(r.Context(), &in, hash, constants.RoleVisitante)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		logger.Audit("user %s registered", u.Username)
		api.RespondWithJSON(w, http.StatusCreated, u)
	}
}

// Me serves GET /auth/me.
func Me(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := repo.ByID(r.Context(), api.GetUserIDFromCtx(r.Context()))
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, u)
	}
}

// ListUsers serves GET /usuarios. nivel may repeat or hold a comma list.
func ListUsers(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit, err := api.Pagination(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		ativo, err := api.OptionalBool(r, "ativo")
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		var niveis []string
		for _, raw := range r.URL.Query()["nivel"] {
			for _, n := range strings.Split(raw, ",") {
				n = strings.ToUpper(strings.TrimSpace(n))
				if n == "" {
					continue
				}
				if !permissions.IsRole(n) {
					api.RespondWithAppError(w, r, apperrors.Validation("%s", constants.FormatFieldError("nivel", "unknown access level")))
					return
				}
				niveis = append(niveis, n)
			}
		}
		users, err := repo.List(r.Context(), ListFilter{Skip: skip, Limit: limit, Niveis: niveis, Ativo: ativo})
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithPayload(w, users)
	}
}

func GetUser(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		u, err := repo.ByID(r.Context(), id)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, u)
	}
}

// UpdateUser serves PUT /usuarios/{id}. An administrator cannot lower or
// disable their own account.
func UpdateUser(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		var in UpdateInput
		if err := api.DecodeJSON(r, &in); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		actor := api.IdentityFromCtx(r.Context())
		if id == actor.UserID {
			if (in.NivelAcesso != nil && *in.NivelAcesso != actor.NivelAcesso) || (in.Ativo != nil && !*in.Ativo) {
				api.RespondWithError(w, http.StatusBadRequest, constants.ErrCannotDemoteSelf)
				return
			}
		}
		u, err := repo.Update(r.Context(), id, &in)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		logger.Audit("user %s updated by %s (nivel %s, ativo %t)", u.Username, actor.Username, u.NivelAcesso, u.Ativo)
		api.RespondWithJSON(w, http.StatusOK, u)
	}
}

func DeleteUser(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		actor := api.IdentityFromCtx(r.Context())
		if id == actor.UserID {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrCannotDeleteSelf)
			return
		}
		if err := repo.Delete(r.Context(), id); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		logger.Audit("user %s deleted by %s", id, actor.Username)
		api.RespondWithMessage(w, constants.SuccessDeleted)
	}
}
