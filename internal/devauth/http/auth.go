package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/sdaportal/internal/devauth/service"
	"github.com/aussiebroadwan/sdaportal/pkg/httpx"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

var errNoSigningKeys = errors.New("no signing keys loaded")

const maxBodyBytes = 1 << 16

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserView is the public shape of an account.
type UserView struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

func viewOf(u service.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Username: u.Username, Role: u.Role, Status: u.Status}
}

type loginResponse struct {
	Access  string   `json:"access"`
	Refresh string   `json:"refresh"`
	User    UserView `json:"user"`
}

// MessageResponse is the body of plain status replies.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenErrorResponse is the body of bearer-token failures.
type TokenErrorResponse struct {
	Msg string `json:"msg"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

type usersResponse struct {
	Users []UserView `json:"users"`
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	httpx.WriteJSON(w, code, MessageResponse{Message: msg})
}

func writeTokenError(w http.ResponseWriter, code int, msg string) {
	httpx.WriteJSON(w, code, TokenErrorResponse{Msg: msg})
}

// LoginHandler serves POST /api/auth/login.
type LoginHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP handles POST /api/auth/login
//
//	@Summary		Log in
//	@Description	Checks a username and password and returns an access token, a refresh token and the user.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	loginResponse
//	@Failure		400		{object}	MessageResponse	"Missing username or password"
//	@Failure		401		{object}	MessageResponse	"Invalid credentials"
//	@Failure		429		{object}	MessageResponse	"Too Many Requests"
//	@Failure		500		{object}	MessageResponse	"Internal Server Error"
//	@Router			/api/auth/login [post]
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	// A malformed body is treated the same as missing fields.
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Missing username or password")
		return
	}

	res, err := h.TokenService.Login(ctx, req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		log.Info("login rejected", "username", req.Username)
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		log.Error("login failed", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Info("login succeeded", "user_id", res.User.ID, "role", res.User.Role)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Access:  res.Access,
		Refresh: res.Refresh,
		User:    viewOf(res.User),
	})
}

// RefreshHandler serves POST /api/auth/refresh. The refresh token arrives as
// the bearer credential; the body is ignored.
type RefreshHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP handles POST /api/auth/refresh
//
//	@Summary		Refresh access token
//	@Description	Exchanges the bearer refresh token for a new access token carrying the same profile claims.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	refreshResponse
//	@Failure		401	{object}	TokenErrorResponse	"Missing, expired or invalid token"
//	@Failure		422	{object}	TokenErrorResponse	"Only refresh tokens are allowed"
//	@Failure		500	{object}	MessageResponse		"Internal Server Error"
//	@Security		BearerAuth
//	@Router			/api/auth/refresh [post]
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	raw, ok := httpx.BearerToken(r)
	if !ok {
		writeTokenError(w, http.StatusUnauthorized, "Missing Authorization Header")
		return
	}

	access, err := h.TokenService.Refresh(ctx, raw)
	switch {
	case errors.Is(err, service.ErrWrongTokenType):
		writeTokenError(w, http.StatusUnprocessableEntity, "Only refresh tokens are allowed")
		return
	case errors.Is(err, service.ErrInvalidToken):
		log.Info("refresh rejected", "err", err)
		writeTokenError(w, http.StatusUnauthorized, "Token has expired or is invalid")
		return
	case err != nil:
		log.Error("refresh failed", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, refreshResponse{Access: access})
}

// LogoutHandler serves POST /api/auth/logout. Tokens are stateless, so there
// is nothing to revoke.
//
//	@Summary	Log out
//	@Tags		Auth
//	@Produce	json
//	@Success	200	{object}	MessageResponse	"Logout successful"
//	@Router		/api/auth/logout [post]
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Logout successful")
}

// MeHandler serves GET /api/auth/me behind AuthnMiddleware.
type MeHandler struct {
	Users *service.UserDirectory
}

// ServeHTTP handles GET /api/auth/me
//
//	@Summary		Current user
//	@Description	Verifies the bearer access token and returns the account it was issued for.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	UserView
//	@Failure		401	{object}	TokenErrorResponse	"Unauthorized"
//	@Security		BearerAuth
//	@Router			/api/auth/me [get]
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, _ := ctx.Value(httpx.CtxKeyUserID).(string)
	u, err := h.Users.ByID(userID)
	if err != nil {
		slogx.FromContext(ctx).Warn("token subject has no user", "user_id", userID)
		writeTokenError(w, http.StatusUnauthorized, "unknown subject")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, viewOf(u))
}

// ListUsersHandler serves GET /api/admin/get_users.
type ListUsersHandler struct {
	Users *service.UserDirectory
}

// ServeHTTP handles GET /api/admin/get_users
//
//	@Summary	List users
//	@Tags		Admin
//	@Produce	json
//	@Success	200	{object}	usersResponse
//	@Failure	401	{object}	TokenErrorResponse	"Unauthorized"
//	@Failure	403	{object}	TokenErrorResponse	"Forbidden - requires Admin or Owner role"
//	@Security	BearerAuth
//	@Router		/api/admin/get_users [get]
func (h *ListUsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	users := h.Users.List()
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, viewOf(u))
	}
	httpx.WriteJSON(w, http.StatusOK, usersResponse{Users: out})
}
