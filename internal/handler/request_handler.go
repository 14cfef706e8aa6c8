package handler

import (
	"net/http"

	"fundraising/internal/middleware"
	"fundraising/internal/service"
	"fundraising/internal/workflow"
	"fundraising/pkg/pagination"
	"fundraising/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService service.RequestService
}

func NewRequestHandler(requestService service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/fundraising-requests")
	{
		requests.GET("", middleware.RequirePermission("requests.read"), h.ListRequests)
		requests.GET("/approved-without-events", middleware.RequirePermission("requests.publish"), h.ListApprovedWithoutEvents)
		requests.GET("/:id", middleware.RequirePermission("requests.read"), h.GetRequest)
		requests.POST("", middleware.RequireAuth(), h.CreateRequest)
		requests.POST("/:id/resubmit", middleware.RequireAuth(), h.ResubmitRequest)
		requests.POST("/:id/review", middleware.RequirePermission("requests.review"), h.SubmitReview)
		requests.POST("/:id/approval", middleware.RequirePermission("requests.approve"), h.SubmitApproval)
		requests.POST("/:id/publish", middleware.RequirePermission("requests.publish"), h.PublishRequest)
	}
}

// ListRequests returns fundraising requests, optionally filtered by status
// @Summary      List fundraising requests
// @Description  Returns paginated fundraising requests, optionally filtered by comma-separated statuses
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Comma-separated statuses (e.g. submitted,in_review)"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=[]service.RequestResponse}
// @Router       /fundraising-requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.RequestFilter{
		Statuses: parseStatuses(c.Query("status")),
		Page:     params.Page,
		Limit:    params.Limit,
	}

	requests, total, err := h.requestService.ListRequests(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, requests, params.Meta(total)))
}

// GetRequest returns a single fundraising request with its review history
// @Summary      Get a fundraising request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /fundraising-requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	detail, err := h.requestService.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// CreateRequest submits a new fundraising request
// @Summary      Submit a fundraising request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRequestDTO  true  "Request Payload"
// @Success      201      {object}  response.Response{data=service.RequestDetailResponse}
// @Failure      400      {object}  response.Response
// @Router       /fundraising-requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.requestService.CreateRequest(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, detail))
}

// ResubmitRequest re-submits a request that was sent back for more information
func (h *RequestHandler) ResubmitRequest(c *gin.Context) {
	var req service.ResubmitRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.requestService.ResubmitRequest(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// SubmitReview records a review step (information_needed or in_review)
// @Summary      Submit a review step
// @Description  Moves a request to information_needed or in_review. A deadline (YYYY-MM-DD, after today) is required when targeting in_review.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Request ID"
// @Param        payload  body      service.SubmitReviewDTO  true  "Review Payload"
// @Success      200      {object}  response.Response{data=service.RequestDetailResponse}
// @Failure      400      {object}  response.Response
// @Router       /fundraising-requests/{id}/review [post]
func (h *RequestHandler) SubmitReview(c *gin.Context) {
	var req service.SubmitReviewDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.requestService.SubmitReview(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// SubmitApproval records an accept/reject vote on an in_review request
// @Summary      Submit an approval decision
// @Description  Records the reviewer's accepted/rejected vote. One rejection rejects the request; the request is approved once enough reviewers accept.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Request ID"
// @Param        payload  body      service.SubmitApprovalDTO  true  "Approval Payload"
// @Success      200      {object}  response.Response{data=service.RequestDetailResponse}
// @Failure      400      {object}  response.Response
// @Router       /fundraising-requests/{id}/approval [post]
func (h *RequestHandler) SubmitApproval(c *gin.Context) {
	var req service.SubmitApprovalDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.requestService.SubmitApproval(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// PublishRequest attaches an approved request to an event and publishes it
func (h *RequestHandler) PublishRequest(c *gin.Context) {
	var req service.PublishRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.requestService.PublishRequest(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// ListApprovedWithoutEvents returns approved requests not yet linked to an event
func (h *RequestHandler) ListApprovedWithoutEvents(c *gin.Context) {
	requests, err := h.requestService.ListApprovedWithoutEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

func parseStatuses(raw string) []workflow.Status {
	if raw == "" {
		return nil
	}
	var statuses []workflow.Status
	for _, part := range splitCSV(raw) {
		s := workflow.Status(part)
		if s.Valid() {
			statuses = append(statuses, s)
		}
	}
	return statuses
}
