package api

import (
	"net/http"

	"github.com/starford/notely/internal/auth"
)

// AuthHandler serves the sign-up and session routes.
type AuthHandler struct {
	svc *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// SignUp handles POST /api/auth/signup.
//
//	@Summary		Register a new user
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CredentialsRequest	true	"Credentials"
//	@Success		201		{object}	UserResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/auth/signup [post]
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.SignUp(r.Context(), auth.Credentials(req))
	if err != nil {
		writeError(w, "sign up", err)
		return
	}
	writeJSON(w, http.StatusCreated, UserResponse{User: *u})
}

// SignIn handles POST /api/auth/signin. The session is returned in the body
// and also set as a cookie for the HTML pages.
//
//	@Summary		Sign in with email and password
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CredentialsRequest	true	"Credentials"
//	@Success		200		{object}	models.Session
//	@Failure		401		{object}	errResponse
//	@Router			/auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.svc.SignIn(r.Context(), auth.Credentials(req))
	if err != nil {
		writeError(w, "sign in", err)
		return
	}
	h.svc.SetCookie(w, sess)
	writeJSON(w, http.StatusOK, sess)
}

// SignOut handles POST /api/auth/signout. Tokens are stateless, so this only
// clears the cookie.
//
//	@Summary		Sign out
//	@Tags			auth
//	@Success		204	"Signed out"
//	@Router			/auth/signout [post]
func (h *AuthHandler) SignOut(w http.ResponseWriter, _ *http.Request) {
	h.svc.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// User handles GET /api/auth/user.
//
//	@Summary		Return the authenticated user
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	UserResponse
//	@Failure		401	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/auth/user [get]
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, UserResponse{User: currentUser(r)})
}
