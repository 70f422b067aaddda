package handlers

import (
	"errors"
	"net/http"

	"home_climate/internal/service"

	"github.com/gin-gonic/gin"
)

// credentials is the body of both sign-up and sign-in.
type credentials struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=72"` // bcrypt reads at most 72 bytes
}

func (h *Handler) bindCredentials(c *gin.Context) (credentials, bool) {
	var in credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		if h.log != nil {
			h.log.Infow("auth_bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return credentials{}, false
	}
	return in, true
}

// @Summary      Create an account
// @Description  Usernames listed in auth.admins become administrators.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentials  true  "username and password"
// @Success      200   {object}  map[string]int
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	in, ok := h.bindCredentials(c)
	if !ok {
		return
	}
	id, err := h.services.Authorization.SignUp(c.Request.Context(), in.Username, in.Password)
	if errors.Is(err, service.ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_sign_up_failed", "username", in.Username, "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not create account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// @Summary      Obtain a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentials  true  "username and password"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	in, ok := h.bindCredentials(c)
	if !ok {
		return
	}
	token, err := h.services.Authorization.GenerateToken(c.Request.Context(), in.Username, in.Password)
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrInvalidPassword):
		if h.log != nil {
			h.log.Infow("auth_sign_in_rejected", "username", in.Username)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "sign-in unavailable", "auth_sign_in_failed", err, "username", in.Username)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
