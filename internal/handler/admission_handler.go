package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sunrise-academy/portal-api/internal/models"
	"github.com/sunrise-academy/portal-api/internal/service"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
	"github.com/sunrise-academy/portal-api/pkg/response"
)

// AdmissionHandler wires HTTP endpoints to the admission service.
type AdmissionHandler struct {
	service *service.AdmissionService
}

// NewAdmissionHandler creates a new handler.
func NewAdmissionHandler(svc *service.AdmissionService) *AdmissionHandler {
	return &AdmissionHandler{service: svc}
}

// Submit godoc
// @Summary Submit an admission application
// @Description Create a pending application, optionally tied to the logged-in account
// @Tags Admissions
// @Accept json
// @Produce json
// @Param payload body models.SubmitAdmissionRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admissions [post]
func (h *AdmissionHandler) Submit(c *gin.Context) {
	var req models.SubmitAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid admission payload"))
		return
	}

	var applicant *service.Applicant
	if claims := claimsFromContext(c); claims != nil {
		applicant = &service.Applicant{UID: claims.UserID, Name: claims.FullName, Email: claims.Email}
	}

	admission, err := h.service.Submit(c.Request.Context(), req, applicant)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, admission)
}

// List godoc
// @Summary List admission applications
// @Description Return applications newest-first with optional status filter
// @Tags Admissions
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admissions [get]
func (h *AdmissionHandler) List(c *gin.Context) {
	filter := models.AdmissionFilter{
		Status: models.AdmissionStatus(c.Query("status")),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	admissions, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, admissions, pagination)
}

// Get godoc
// @Summary Get one admission application
// @Description Admins see every application; applicants only their own
// @Tags Admissions
// @Produce json
// @Param id path string true "Admission ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admissions/{id} [get]
func (h *AdmissionHandler) Get(c *gin.Context) {
	admission, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, admission, nil)
}

// Approve godoc
// @Summary Approve a pending application
// @Description Provision the student record, promote the applicant account, run auto-link
// @Tags Admissions
// @Produce json
// @Param id path string true "Admission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admissions/{id}/approve [post]
func (h *AdmissionHandler) Approve(c *gin.Context) {
	student, err := h.service.Approve(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// Reject godoc
// @Summary Reject a pending application
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Admission ID"
// @Param payload body map[string]string false "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admissions/{id}/reject [post]
func (h *AdmissionHandler) Reject(c *gin.Context) {
	var payload struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&payload)

	admission, err := h.service.Reject(c.Request.Context(), c.Param("id"), actorFromContext(c), payload.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, admission, nil)
}

// UpdateNotes godoc
// @Summary Update administrative notes on an application
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Admission ID"
// @Param payload body map[string]string true "Notes"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admissions/{id}/notes [patch]
func (h *AdmissionHandler) UpdateNotes(c *gin.Context) {
	var payload struct {
		Notes string `json:"notes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "notes required"))
		return
	}

	if err := h.service.UpdateNotes(c.Request.Context(), c.Param("id"), payload.Notes); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// OfferLetter godoc
// @Summary Download the admission offer letter
// @Description Render the offer letter PDF for an approved application
// @Tags Admissions
// @Produce application/pdf
// @Param id path string true "Admission ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admissions/{id}/letter [get]
func (h *AdmissionHandler) OfferLetter(c *gin.Context) {
	id := c.Param("id")
	payload, err := h.service.OfferLetter(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("offer-letter-%s.pdf", id)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
