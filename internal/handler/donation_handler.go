package handler

import (
	"net/http"

	"fundraising/internal/middleware"
	"fundraising/internal/model"
	"fundraising/internal/service"
	"fundraising/pkg/pagination"
	"fundraising/pkg/response"

	"github.com/gin-gonic/gin"
)

type DonationHandler struct {
	donationService service.DonationService
}

func NewDonationHandler(donationService service.DonationService) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

func (h *DonationHandler) RegisterRoutes(router *gin.RouterGroup) {
	donations := router.Group("/donations")
	{
		// Donating is public; only staff may record donations on behalf of others
		donations.POST("", h.RecordDonation)
		donations.GET("", middleware.RequirePermission("donations.read"), h.ListDonations)
	}
	router.GET("/events/:id/donations", h.ListEventDonations)
}

// RecordDonation records a donation against an active event
// @Summary      Record a donation
// @Description  Records a donation for an active event; succeeded donations roll into the event's collected amount
// @Tags         donations
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RecordDonationRequest  true  "Donation Payload"
// @Success      201      {object}  response.Response{data=service.DonationResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /donations [post]
func (h *DonationHandler) RecordDonation(c *gin.Context) {
	var req service.RecordDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	donation, err := h.donationService.RecordDonation(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, donation))
}

// ListDonations returns donations, optionally filtered by event or status
func (h *DonationHandler) ListDonations(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.DonationFilter{
		EventID: c.Query("event_id"),
		Status:  c.Query("status"),
		Page:    params.Page,
		Limit:   params.Limit,
	}

	donations, total, err := h.donationService.ListDonations(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, donations, params.Meta(total)))
}

// ListEventDonations is the public donor wall for one event. Only succeeded
// donations are shown; anonymous donors are already masked by the service.
func (h *DonationHandler) ListEventDonations(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.DonationFilter{
		EventID: c.Param("id"),
		Status:  model.DonationSucceeded,
		Page:    params.Page,
		Limit:   params.Limit,
	}

	donations, total, err := h.donationService.ListDonations(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, donations, params.Meta(total)))
}
