package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sunrise-academy/portal-api/internal/models"
	"github.com/sunrise-academy/portal-api/internal/service"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
	"github.com/sunrise-academy/portal-api/pkg/response"
)

// ContentHandler wires HTTP endpoints to the content service.
type ContentHandler struct {
	service *service.ContentService
}

// NewContentHandler creates a new handler.
func NewContentHandler(svc *service.ContentService) *ContentHandler {
	return &ContentHandler{service: svc}
}

// ListEvents godoc
// @Summary List events
// @Description Public listing of all events, most recent date first
// @Tags Content
// @Produce json
// @Param upcoming query bool false "Only events from today onward"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *ContentHandler) ListEvents(c *gin.Context) {
	var (
		events []models.Event
		err    error
	)
	if c.Query("upcoming") == "true" {
		events, err = h.service.ListUpcomingEvents(c.Request.Context())
	} else {
		events, err = h.service.ListEvents(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	response.JSON(c, http.StatusOK, events, nil)
}

// CreateEvent godoc
// @Summary Create an event
// @Tags Content
// @Accept json
// @Produce json
// @Param payload body models.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events [post]
func (h *ContentHandler) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	event, err := h.service.CreateEvent(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body models.UpdateEventRequest true "Fields to update"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [patch]
func (h *ContentHandler) UpdateEvent(c *gin.Context) {
	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	if err := h.service.UpdateEvent(c.Request.Context(), c.Param("id"), req, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Tags Content
// @Produce json
// @Param id path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [delete]
func (h *ContentHandler) DeleteEvent(c *gin.Context) {
	if err := h.service.DeleteEvent(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListNotices godoc
// @Summary List notices
// @Description Public listing of all notices, newest first
// @Tags Content
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notices [get]
func (h *ContentHandler) ListNotices(c *gin.Context) {
	notices, err := h.service.ListNotices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if notices == nil {
		notices = []models.Notice{}
	}

	response.JSON(c, http.StatusOK, notices, nil)
}

// CreateNotice godoc
// @Summary Create a notice
// @Tags Content
// @Accept json
// @Produce json
// @Param payload body models.CreateNoticeRequest true "Notice payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notices [post]
func (h *ContentHandler) CreateNotice(c *gin.Context) {
	var req models.CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notice payload"))
		return
	}

	notice, err := h.service.CreateNotice(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, notice)
}

// ListResources godoc
// @Summary List resources
// @Description Portal listing of downloadable resources, newest first
// @Tags Content
// @Produce json
// @Param type query string false "Filter by resource type"
// @Success 200 {object} response.Envelope
// @Router /resources [get]
func (h *ContentHandler) ListResources(c *gin.Context) {
	resources, err := h.service.ListResources(c.Request.Context(), c.Query("type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if resources == nil {
		resources = []models.Resource{}
	}

	response.JSON(c, http.StatusOK, resources, nil)
}

// CreateResource godoc
// @Summary Create a resource
// @Tags Content
// @Accept json
// @Produce json
// @Param payload body models.CreateResourceRequest true "Resource payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /resources [post]
func (h *ContentHandler) CreateResource(c *gin.Context) {
	var req models.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resource payload"))
		return
	}

	resource, err := h.service.CreateResource(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, resource)
}

// DeleteResource godoc
// @Summary Delete a resource
// @Tags Content
// @Produce json
// @Param id path string true "Resource ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{id} [delete]
func (h *ContentHandler) DeleteResource(c *gin.Context) {
	if err := h.service.DeleteResource(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// DeleteNotice godoc
// @Summary Delete a notice
// @Tags Content
// @Produce json
// @Param id path string true "Notice ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notices/{id} [delete]
func (h *ContentHandler) DeleteNotice(c *gin.Context) {
	if err := h.service.DeleteNotice(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
