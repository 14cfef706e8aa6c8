package handler

import (
	"net/http"

	"fundraising/internal/middleware"
	"fundraising/internal/service"
	"fundraising/pkg/response"

	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	contentService service.ContentService
}

func NewContentHandler(contentService service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

func (h *ContentHandler) RegisterRoutes(router *gin.RouterGroup) {
	sliders := router.Group("/sliders")
	{
		sliders.GET("", h.ListSliders)
		sliders.POST("", middleware.RequirePermission("content.manage"), h.CreateSlider)
		sliders.PUT("/:id", middleware.RequirePermission("content.manage"), h.UpdateSlider)
		sliders.DELETE("/:id", middleware.RequirePermission("content.manage"), h.DeleteSlider)
	}

	menus := router.Group("/menu-items")
	{
		menus.GET("", h.ListMenuItems)
		menus.POST("", middleware.RequirePermission("content.manage"), h.CreateMenuItem)
		menus.PUT("/:id", middleware.RequirePermission("content.manage"), h.UpdateMenuItem)
		menus.DELETE("/:id", middleware.RequirePermission("content.manage"), h.DeleteMenuItem)
	}
}

// ListSliders returns homepage sliders; ?active=true limits to active ones
func (h *ContentHandler) ListSliders(c *gin.Context) {
	sliders, err := h.contentService.ListSliders(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sliders))
}

func (h *ContentHandler) CreateSlider(c *gin.Context) {
	var req service.SliderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	slider, err := h.contentService.CreateSlider(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, slider))
}

func (h *ContentHandler) UpdateSlider(c *gin.Context) {
	var req service.SliderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	slider, err := h.contentService.UpdateSlider(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, slider))
}

func (h *ContentHandler) DeleteSlider(c *gin.Context) {
	if err := h.contentService.DeleteSlider(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// ListMenuItems returns navigation menu items; ?active=true limits to active ones
func (h *ContentHandler) ListMenuItems(c *gin.Context) {
	items, err := h.contentService.ListMenuItems(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

func (h *ContentHandler) CreateMenuItem(c *gin.Context) {
	var req service.MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.contentService.CreateMenuItem(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

func (h *ContentHandler) UpdateMenuItem(c *gin.Context) {
	var req service.MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.contentService.UpdateMenuItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

func (h *ContentHandler) DeleteMenuItem(c *gin.Context) {
	if err := h.contentService.DeleteMenuItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
