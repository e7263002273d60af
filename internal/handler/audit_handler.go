package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sunrise-academy/portal-api/internal/service"
	"github.com/sunrise-academy/portal-api/pkg/response"
)

// AuditHandler wires HTTP endpoints to the audit service.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler creates a new handler.
func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary List audit entries
// @Description Return entries newest-first, capped at the requested limit
// @Tags Audit
// @Produce json
// @Param limit query int false "Maximum number of entries (default 50)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, nil)
}

// ExportCSV godoc
// @Summary Export audit entries as CSV
// @Tags Audit
// @Produce text/csv
// @Param limit query int false "Maximum number of entries (default 50)"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /audit/export [get]
func (h *AuditHandler) ExportCSV(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	payload, err := h.service.ExportCSV(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("audit-log-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}
