package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sunrise-academy/portal-api/internal/models"
	"github.com/sunrise-academy/portal-api/internal/service"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
	"github.com/sunrise-academy/portal-api/pkg/response"
)

// StudentHandler wires HTTP endpoints to the student service. Per-record
// access checks need the stored account, not just the token claims, so the
// handler resolves the session before scoped reads.
type StudentHandler struct {
	service *service.StudentService
	auth    *service.AuthService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(svc *service.StudentService, auth *service.AuthService) *StudentHandler {
	return &StudentHandler{service: svc, auth: auth}
}

func (h *StudentHandler) viewer(c *gin.Context) (*models.User, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	session, err := h.auth.Session(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	return session.User, nil
}

// List godoc
// @Summary List student records
// @Description Admin roster with search and class filter
// @Tags Students
// @Produce json
// @Param search query string false "Name or email search"
// @Param class query string false "Filter by class"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Search: c.Query("search"),
		Class:  c.Query("class"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	students, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get one student record
// @Description Admins see any record, students their own, parents linked records
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	viewer, err := h.viewer(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	student, err := h.service.Get(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// GetOwn godoc
// @Summary Get the record belonging to the current student account
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/me [get]
func (h *StudentHandler) GetOwn(c *gin.Context) {
	viewer, err := h.viewer(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	student, err := h.service.GetOwn(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// ListForParent godoc
// @Summary List records linked to the current parent account
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /parents/me/students [get]
func (h *StudentHandler) ListForParent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	students, err := h.service.ListForParent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, students, nil)
}

// Update godoc
// @Summary Update admin-editable fields of a record
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.StudentUpdate true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [patch]
func (h *StudentHandler) Update(c *gin.Context) {
	var update models.StudentUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}

	student, err := h.service.Update(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}
