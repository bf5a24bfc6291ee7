package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eb5tracker/internal/models"
	"eb5tracker/internal/services"
)

type TemplateHandler struct {
	service services.TemplateService
}

func NewTemplateHandler(service services.TemplateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

type replaceTemplateRequest struct {
	Stages []models.StageDefinition `json:"stages" binding:"required"`
}

type editStageRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type moveStageRequest struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

// @Summary      Stage template
// @Description  Ordered stage definitions new investors are seeded from
// @Tags         Template
// @Produce      json
// @Success      200  {array}  models.StageDefinition
// @Router       /template [get]
func (h *TemplateHandler) List(c *gin.Context) {
	defs, err := h.service.List()
	if err != nil {
		writeError(c, "[template][list]", err)
		return
	}
	c.JSON(http.StatusOK, defs)
}

// @Summary      Replace stage template
// @Tags         Template
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      replaceTemplateRequest  true  "Full stage list"
// @Success      200   {array}   models.StageDefinition
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /template [put]
func (h *TemplateHandler) Replace(c *gin.Context) {
	var req replaceTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	defs, err := h.service.Replace(getIdentity(c), req.Stages)
	if err != nil {
		writeError(c, "[template][replace]", err)
		return
	}
	c.JSON(http.StatusOK, defs)
}

// @Summary      Add stage
// @Description  Appends a placeholder stage
// @Tags         Template
// @Produce      json
// @Security     BearerAuth
// @Success      201  {array}   models.StageDefinition
// @Failure      403  {object}  errorResponse
// @Router       /template/stages [post]
func (h *TemplateHandler) Add(c *gin.Context) {
	defs, err := h.service.Add(getIdentity(c))
	if err != nil {
		writeError(c, "[template][add]", err)
		return
	}
	c.JSON(http.StatusCreated, defs)
}

// @Summary      Edit stage
// @Tags         Template
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        index  path      int               true  "Stage position"
// @Param        body   body      editStageRequest  true  "Name and description"
// @Success      200    {array}   models.StageDefinition
// @Failure      400    {object}  errorResponse
// @Router       /template/stages/{index} [put]
func (h *TemplateHandler) Edit(c *gin.Context) {
	index, ok := getIntParam(c, "index")
	if !ok {
		return
	}
	var req editStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	defs, err := h.service.Edit(getIdentity(c), index, req.Name, req.Description)
	if err != nil {
		writeError(c, "[template][edit]", err)
		return
	}
	c.JSON(http.StatusOK, defs)
}

// @Summary      Remove stage
// @Tags         Template
// @Produce      json
// @Security     BearerAuth
// @Param        index  path      int  true  "Stage position"
// @Success      200    {array}   models.StageDefinition
// @Failure      400    {object}  errorResponse
// @Router       /template/stages/{index} [delete]
func (h *TemplateHandler) Remove(c *gin.Context) {
	index, ok := getIntParam(c, "index")
	if !ok {
		return
	}
	defs, err := h.service.Remove(getIdentity(c), index)
	if err != nil {
		writeError(c, "[template][remove]", err)
		return
	}
	c.JSON(http.StatusOK, defs)
}

// @Summary      Move stage
// @Description  Moves the stage at from to position to, shifting the stages between
// @Tags         Template
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      moveStageRequest  true  "Positions"
// @Success      200   {array}   models.StageDefinition
// @Failure      400   {object}  errorResponse
// @Router       /template/move [post]
func (h *TemplateHandler) Move(c *gin.Context) {
	var req moveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	defs, err := h.service.Move(getIdentity(c), *req.From, *req.To)
	if err != nil {
		writeError(c, "[template][move]", err)
		return
	}
	c.JSON(http.StatusOK, defs)
}
