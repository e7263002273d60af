package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sunrise-academy/portal-api/internal/models"
	"github.com/sunrise-academy/portal-api/internal/service"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
	"github.com/sunrise-academy/portal-api/pkg/response"
)

// LinkingHandler wires HTTP endpoints to the linking service.
type LinkingHandler struct {
	service *service.LinkingService
}

// NewLinkingHandler creates a new handler.
func NewLinkingHandler(svc *service.LinkingService) *LinkingHandler {
	return &LinkingHandler{service: svc}
}

// Search godoc
// @Summary Find a student record by name and email
// @Description Exact match after normalization of case and whitespace
// @Tags Linking
// @Accept json
// @Produce json
// @Param payload body models.LinkSearchRequest true "Search payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /links/search [post]
func (h *LinkingHandler) Search(c *gin.Context) {
	var req models.LinkSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search payload"))
		return
	}

	student, err := h.service.SearchStudent(c.Request.Context(), req.StudentName, req.StudentEmail)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// Link godoc
// @Summary Link a parent account to a student record
// @Tags Linking
// @Accept json
// @Produce json
// @Param payload body models.LinkRequest true "Link payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /links [post]
func (h *LinkingHandler) Link(c *gin.Context) {
	var req models.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid link payload"))
		return
	}

	if err := h.service.Link(c.Request.Context(), req.ParentID, req.StudentID, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Unlink godoc
// @Summary Remove a parent-student link
// @Tags Linking
// @Accept json
// @Produce json
// @Param payload body models.LinkRequest true "Unlink payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /links [delete]
func (h *LinkingHandler) Unlink(c *gin.Context) {
	var req models.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid unlink payload"))
		return
	}

	if err := h.service.Unlink(c.Request.Context(), req.ParentID, req.StudentID, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Verify godoc
// @Summary Report one-sided parent-student relations
// @Tags Linking
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /links/verify [get]
func (h *LinkingHandler) Verify(c *gin.Context) {
	inconsistencies, err := h.service.Verify(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if inconsistencies == nil {
		inconsistencies = []models.LinkInconsistency{}
	}

	response.JSON(c, http.StatusOK, inconsistencies, nil)
}

// Repair godoc
// @Summary Restore bidirectional consistency for reported relations
// @Tags Linking
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /links/repair [post]
func (h *LinkingHandler) Repair(c *gin.Context) {
	repaired, err := h.service.Repair(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"repaired": repaired}, nil)
}
