package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eb5tracker/internal/models"
	"eb5tracker/internal/services"
)

type ReportHandler struct {
	service services.TimelineService
}

func NewReportHandler(service services.TimelineService) *ReportHandler {
	return &ReportHandler{service: service}
}

// @Summary      Timeline comparison
// @Description  Progress of every visible investor across the stage list
// @Tags         Reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Timeline
// @Failure      502  {object}  errorResponse
// @Router       /timeline [get]
func (h *ReportHandler) Timeline(c *gin.Context) {
	t, err := h.service.Timeline(c.Request.Context(), getIdentity(c))
	if err != nil {
		writeError(c, "[reports][timeline]", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary      Timeline comparison as PDF
// @Tags         Reports
// @Produce      application/pdf
// @Security     BearerAuth
// @Success      200  {file}    file
// @Failure      502  {object}  errorResponse
// @Router       /timeline.pdf [get]
func (h *ReportHandler) TimelinePDF(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.service.TimelinePDF(c.Request.Context(), getIdentity(c), &buf); err != nil {
		writeError(c, "[reports][pdf]", err)
		return
	}
	name := fmt.Sprintf("eb5-timeline-%s.pdf", time.Now().Format(models.DateLayout))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
