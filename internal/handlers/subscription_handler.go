package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"equity/internal/models"
	"equity/internal/services"
	"equity/internal/validator"
)

// SubscriptionHandler handles subscription-related requests.
type SubscriptionHandler struct {
	subscriptionService services.SubscriptionServicer
	auditService        services.AuditServicer
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService services.SubscriptionServicer, auditService services.AuditServicer) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService, auditService: auditService}
}

// SubscribeRequest represents the subscribe payload.
type SubscribeRequest struct {
	PaymentMethodID string `json:"paymentMethodId" example:"pm_card_visa"`
}

// SubscribeResponse reports the subscription the provider created.
type SubscribeResponse struct {
	Success        bool                      `json:"success" example:"true"`
	SubscriptionID string                    `json:"subscriptionId" example:"sub_1Nv0"`
	Status         models.SubscriptionStatus `json:"status" swaggertype:"string" example:"active"`
}

// CheckSubscriptionResponse reports the cached subscription state.
type CheckSubscriptionResponse struct {
	IsSubscribed bool `json:"isSubscribed"`
}

// Subscribe handles starting a subscription.
// @Summary     Subscribe
// @Description Attach a payment method and subscribe to the configured price
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SubscribeRequest true "Payment method"
// @Success     200 {object} SubscribeResponse "Subscription created"
// @Failure     400 {object} apperrors.Response "Missing payment method or payment declined"
// @Failure     401 {object} apperrors.Response "Unauthorized"
// @Failure     404 {object} apperrors.Response "User not found"
// @Failure     500 {object} apperrors.Response "Billing not configured or provider error"
// @Router      /subscribe [post]
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, validator.BindingError(err))
		return
	}

	result, err := h.subscriptionService.Subscribe(c.Request.Context(), userID, req.PaymentMethodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditSubscribe, "subscription", result.SubscriptionID, c.ClientIP(),
		map[string]interface{}{"status": string(result.Status)})

	c.JSON(http.StatusOK, SubscribeResponse{
		Success:        true,
		SubscriptionID: result.SubscriptionID,
		Status:         result.Status,
	})
}

// CheckSubscription reports whether the user's subscription is active.
// @Summary     Check subscription
// @Description Report the locally cached subscription state
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} CheckSubscriptionResponse "Subscription state"
// @Failure     401 {object} apperrors.Response "Unauthorized"
// @Failure     404 {object} apperrors.Response "User not found"
// @Router      /check-subscription [get]
func (h *SubscriptionHandler) CheckSubscription(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	subscribed, err := h.subscriptionService.IsSubscribed(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, CheckSubscriptionResponse{IsSubscribed: subscribed})
}

// CancelSubscription handles canceling the user's subscription.
// @Summary     Cancel subscription
// @Description Cancel the subscription at the provider and mark it canceled
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse "Subscription canceled"
// @Failure     400 {object} apperrors.Response "No subscription"
// @Failure     401 {object} apperrors.Response "Unauthorized"
// @Failure     404 {object} apperrors.Response "User not found"
// @Failure     500 {object} apperrors.Response "Provider error"
// @Router      /cancel-subscription [post]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.subscriptionService.Cancel(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCancelSubscription, "subscription", result.SubscriptionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Subscription canceled successfully"})
}
