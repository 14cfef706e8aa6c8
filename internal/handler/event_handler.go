package handler

import (
	"net/http"

	"fundraising/internal/middleware"
	"fundraising/internal/service"
	"fundraising/pkg/pagination"
	"fundraising/pkg/response"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventService service.EventService
}

func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) RegisterRoutes(router *gin.RouterGroup) {
	events := router.Group("/events")
	{
		// Listing and detail are public — donors browse events without accounts
		events.GET("", h.ListEvents)
		events.GET("/:id", h.GetEvent)
		events.POST("", middleware.RequirePermission("events.write"), h.CreateEvent)
		events.PUT("/:id", middleware.RequirePermission("events.write"), h.UpdateEvent)
		events.DELETE("/:id", middleware.RequirePermission("events.write"), h.DeleteEvent)
	}
}

// ListEvents returns events, optionally filtered by status or category
// @Summary      List events
// @Tags         events
// @Produce      json
// @Param        status    query     string  false  "Event status (draft, active, closed)"
// @Param        category  query     string  false  "Fundraising category"
// @Param        page      query     int     false  "Page number"
// @Param        limit     query     int     false  "Page size"
// @Success      200       {object}  response.Response{data=[]service.EventResponse}
// @Router       /events [get]
func (h *EventHandler) ListEvents(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.EventFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Page:     params.Page,
		Limit:    params.Limit,
	}

	events, total, err := h.eventService.ListEvents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, events, params.Meta(total)))
}

// GetEvent returns one event by id or slug
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, event))
}

// CreateEvent creates a fundraising event
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), req, actorUUID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, event))
}

// UpdateEvent updates an event's details or status
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var req service.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	event, err := h.eventService.UpdateEvent(c.Request.Context(), c.Param("id"), req, actorUUID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, event))
}

// DeleteEvent removes an event that has no published request attached
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	if err := h.eventService.DeleteEvent(c.Request.Context(), c.Param("id"), actorUUID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
