package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/arenaops/scoreboard/internal/domain"
)

// SubscriptionHandler handles webhook subscription HTTP endpoints.
type SubscriptionHandler struct {
	repo domain.WebhookSubscriptionRepository
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(repo domain.WebhookSubscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{repo: repo}
}

// RegisterRoutes registers subscription routes on the given group.
// all routes require authentication.
func (h *SubscriptionHandler) RegisterRoutes(g *echo.Group) {
	subs := g.Group("/subscriptions")
	subs.POST("", h.Create)
	subs.GET("", h.List)
	subs.DELETE("/:id", h.Delete)
}

// createSubscriptionRequest is the request body for creating a subscription.
type createSubscriptionRequest struct {
	// Brand is the brand whose podium position to watch.
	Brand string `json:"brand"`
	// TargetURL is the webhook endpoint that will receive notifications.
	TargetURL string `json:"target_url"`
	// Secret is used for HMAC-SHA256 signature verification.
	Secret string `json:"secret"`
}

// subscriptionResponse is the API representation of a webhook subscription.
type subscriptionResponse struct {
	ID        string    `json:"id"`
	Brand     string    `json:"brand"`
	TargetURL string    `json:"target_url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// listSubscriptionsResponse is the response for listing subscriptions.
type listSubscriptionsResponse struct {
	Subscriptions []subscriptionResponse `json:"subscriptions"`
	Count         int                    `json:"count"`
}

// Create creates a new webhook subscription.
// @Summary Create a webhook subscription
// @Description Subscribe to podium-change notifications for a brand.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param request body createSubscriptionRequest true "Subscription details"
// @Success 201 {object} subscriptionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/subscriptions [post]
// @Security BearerAuth
func (h *SubscriptionHandler) Create(c echo.Context) error {
	if _, err := RequireAuth(c); err != nil {
		return err
	}

	var req createSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.TargetURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target_url is required")
	}
	if req.Secret == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "secret is required")
	}

	// validate target_url is a valid URL with http/https scheme
	parsedURL, err := url.Parse(req.TargetURL)
	if err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") || parsedURL.Host == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target_url must be a valid HTTP or HTTPS URL")
	}

	brand, err := domain.NewBrand(req.Brand)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "brand is required")
	}

	subscription, err := domain.NewWebhookSubscription(brand, req.TargetURL, req.Secret)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subscription data")
	}

	if err := h.repo.Save(c.Request().Context(), subscription); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save subscription")
	}

	return c.JSON(http.StatusCreated, toSubscriptionResponse(subscription))
}

// List returns all active subscriptions for a brand.
// @Summary List webhook subscriptions
// @Description Get the active webhook subscriptions for one brand.
// @Tags subscriptions
// @Produce json
// @Param brand query string true "Brand name"
// @Success 200 {object} listSubscriptionsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/subscriptions [get]
// @Security BearerAuth
func (h *SubscriptionHandler) List(c echo.Context) error {
	if _, err := RequireAuth(c); err != nil {
		return err
	}

	brand, err := domain.NewBrand(c.QueryParam("brand"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "brand is required")
	}

	subs, err := h.repo.FindByBrand(c.Request().Context(), brand)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch subscriptions")
	}

	response := listSubscriptionsResponse{
		Subscriptions: make([]subscriptionResponse, 0, len(subs)),
		Count:         len(subs),
	}
	for _, sub := range subs {
		response.Subscriptions = append(response.Subscriptions, toSubscriptionResponse(sub))
	}

	return c.JSON(http.StatusOK, response)
}

// Delete removes a subscription by ID.
// @Summary Delete a webhook subscription
// @Description Delete a webhook subscription. Admin only.
// @Tags subscriptions
// @Param id path string true "Subscription ID"
// @Success 204 "No Content"
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/subscriptions/{id} [delete]
// @Security BearerAuth
func (h *SubscriptionHandler) Delete(c echo.Context) error {
	claims, err := RequireAuth(c)
	if err != nil {
		return err
	}
	if !claims.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "admin role required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subscription id format")
	}

	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		if err == domain.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "subscription not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete subscription")
	}

	return c.NoContent(http.StatusNoContent)
}

func toSubscriptionResponse(sub *domain.WebhookSubscription) subscriptionResponse {
	return subscriptionResponse{
		ID:        sub.ID().String(),
		Brand:     sub.Brand().String(),
		TargetURL: sub.TargetURL(),
		IsActive:  sub.IsActive(),
		CreatedAt: sub.CreatedAt(),
		UpdatedAt: sub.UpdatedAt(),
	}
}
