package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eb5tracker/internal/models"
	"eb5tracker/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// @Summary      Sign up
// @Description  Creates an account. Only authorized e-mail domains may register; the first account becomes admin.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        signup  body      models.SignupRequest  true  "Account data"
// @Success      201     {object}  models.User
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Failure      502     {object}  errorResponse
// @Router       /signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][signup] bad request: bind json failed: err=%v", err)
		badRequest(c, err)
		return
	}
	user, err := h.authService.SignUp(c.Request.Context(), req)
	if err != nil {
		writeError(c, "[auth][signup]", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// @Summary      Sign in
// @Description  Checks the password and returns an access token with the caller's identity
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  models.Session
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		badRequest(c, err)
		return
	}
	log.Printf("[auth][login] attempt email=%q", strings.TrimSpace(req.Email))

	session, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, "[auth][login]", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// @Summary      Sign out
// @Tags         Auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.SignOut(c.Request.Context(), getIdentity(c)); err != nil {
		writeError(c, "[auth][logout]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Current session
// @Description  Returns the identity behind the bearer token, with the role as currently stored
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Identity
// @Failure      401  {object}  errorResponse
// @Router       /session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, getIdentity(c))
}
