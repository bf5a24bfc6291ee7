package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eb5tracker/internal/models"
	"eb5tracker/internal/services"
)

type UserHandler struct {
	gateway services.PersistenceGateway
}

func NewUserHandler(gateway services.PersistenceGateway) *UserHandler {
	return &UserHandler{gateway: gateway}
}

// @Summary      List users
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.User
// @Failure      403  {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.gateway.LoadUsers(c.Request.Context(), getIdentity(c))
	if err != nil {
		writeError(c, "[users][list]", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary      Change user role
// @Description  Admin only. Admins cannot change their own role.
// @Tags         Users
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string                   true  "User ID"
// @Param        body  body  models.RoleChangeRequest  true  "New role"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req models.RoleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.gateway.SetUserRole(c.Request.Context(), getIdentity(c), c.Param("id"), req.Role); err != nil {
		writeError(c, "[users][role]", err)
		return
	}
	c.Status(http.StatusNoContent)
}
