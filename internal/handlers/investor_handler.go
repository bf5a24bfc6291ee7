package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eb5tracker/internal/models"
	"eb5tracker/internal/services"
)

type InvestorHandler struct {
	service services.InvestorService
}

func NewInvestorHandler(service services.InvestorService) *InvestorHandler {
	return &InvestorHandler{service: service}
}

type stageStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// @Summary      List investors
// @Description  Investors owned by the caller; without a token, the local demo collection
// @Tags         Investors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Investor
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /investors [get]
func (h *InvestorHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), getIdentity(c))
	if err != nil {
		writeError(c, "[investors][list]", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Get investor
// @Tags         Investors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Investor ID"
// @Success      200  {object}  models.Investor
// @Failure      404  {object}  errorResponse
// @Router       /investors/{id} [get]
func (h *InvestorHandler) GetByID(c *gin.Context) {
	inv, err := h.service.Get(c.Request.Context(), getIdentity(c), c.Param("id"))
	if err != nil {
		writeError(c, "[investors][get]", err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// @Summary      Create investor
// @Description  Admin only. Stages are copied from the current template.
// @Tags         Investors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        investor  body      models.InvestorFields  true  "Investor data"
// @Success      201       {object}  models.Investor
// @Failure      400       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Router       /investors [post]
func (h *InvestorHandler) Create(c *gin.Context) {
	var req models.InvestorFields
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	inv, err := h.service.Create(c.Request.Context(), getIdentity(c), req)
	if err != nil {
		writeError(c, "[investors][create]", err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// @Summary      Update investor
// @Description  Partial update. currentStageIndex is derived from stages and any supplied value is ignored.
// @Tags         Investors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string                true  "Investor ID"
// @Param        patch  body      models.InvestorPatch  true  "Fields to change"
// @Success      200    {object}  models.Investor
// @Failure      400    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /investors/{id} [put]
func (h *InvestorHandler) Update(c *gin.Context) {
	var patch models.InvestorPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	inv, err := h.service.Update(c.Request.Context(), getIdentity(c), c.Param("id"), patch)
	if err != nil {
		writeError(c, "[investors][update]", err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// @Summary      Delete investor
// @Tags         Investors
// @Security     BearerAuth
// @Param        id   path  string  true  "Investor ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Router       /investors/{id} [delete]
func (h *InvestorHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), getIdentity(c), c.Param("id")); err != nil {
		writeError(c, "[investors][delete]", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Toggle stage completion
// @Tags         Stages
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Investor ID"
// @Param        stageId  path      string  true  "Stage ID"
// @Success      200      {object}  models.Investor
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /investors/{id}/stages/{stageId}/toggle [post]
func (h *InvestorHandler) ToggleStage(c *gin.Context) {
	inv, err := h.service.ToggleStage(c.Request.Context(), getIdentity(c), c.Param("id"), c.Param("stageId"))
	if err != nil {
		writeError(c, "[investors][toggle]", err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// @Summary      Set stage status
// @Description  status is one of not_started, in_progress, completed
// @Tags         Stages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string              true  "Investor ID"
// @Param        stageId  path      string              true  "Stage ID"
// @Param        body     body      stageStatusRequest  true  "New status"
// @Success      200      {object}  models.Investor
// @Failure      400      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Router       /investors/{id}/stages/{stageId}/status [put]
func (h *InvestorHandler) SetStageStatus(c *gin.Context) {
	var req stageStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	status, err := models.ParseStageStatus(req.Status)
	if err != nil {
		writeError(c, "[investors][status]", err)
		return
	}
	inv, err := h.service.SetStageStatus(c.Request.Context(), getIdentity(c), c.Param("id"), c.Param("stageId"), status)
	if err != nil {
		writeError(c, "[investors][status]", err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// @Summary      Save notes
// @Tags         Investors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Investor ID"
// @Param        body  body      notesRequest  true  "Notes text"
// @Success      200   {object}  models.Investor
// @Failure      403   {object}  errorResponse
// @Router       /investors/{id}/notes [put]
func (h *InvestorHandler) SaveNotes(c *gin.Context) {
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	inv, err := h.service.SaveNotes(c.Request.Context(), getIdentity(c), c.Param("id"), req.Notes)
	if err != nil {
		writeError(c, "[investors][notes]", err)
		return
	}
	c.JSON(http.StatusOK, inv)
}
