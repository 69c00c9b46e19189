package api

import (
	"net/http"

	"polltree/internal/domain/user"
)

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User      *user.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresIn int64      `json:"expires_in"`
}

// @Summary     Register a user
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request  body      authRequest  true  "Credentials"
// @Success     201      {object}  authResponse
// @Failure     400      {object}  apperr.AppError  "invalid input or email taken"
// @Router      /auth/register [post]
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, err)
		return
	}

	u, err := h.userSvc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		errorResponse(w, err)
		return
	}
	h.writeToken(w, http.StatusCreated, u)
}

// @Summary     Log in
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request  body      authRequest  true  "Credentials"
// @Success     200      {object}  authResponse
// @Failure     401      {object}  apperr.AppError  "invalid credentials"
// @Router      /auth/login [post]
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, err)
		return
	}

	u, err := h.userSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		errorResponse(w, err)
		return
	}
	h.writeToken(w, http.StatusOK, u)
}

func (h *Handler) writeToken(w http.ResponseWriter, status int, u *user.User) {
	token, err := h.jwtMgr.Generate(u.ID, u.Role)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, status, authResponse{
		User:      u,
		Token:     token,
		ExpiresIn: int64(h.jwtMgr.TTL().Seconds()),
	})
}
