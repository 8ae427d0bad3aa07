package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"petfoodstore/models"
	"petfoodstore/payment/momo"
	"petfoodstore/web/middleware"
)

func (h *Handler) InitiatePayment(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body struct {
		OrderID uint                 `json:"orderId"`
		Method  models.PaymentMethod `json:"method"`
	}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	o, err := h.Orders.GetByID(c.Request.Context(), body.OrderID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if o.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	p, err := h.Payments.Initiate(c.Request.Context(), body.OrderID, body.Method)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// MomoCallback receives the gateway IPN. The request is unauthenticated; the
// HMAC signature on the payload is the authentication.
func (h *Handler) MomoCallback(c *gin.Context) {
	var ipn momo.IPNPayload
	if err := c.BindJSON(&ipn); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	p, err := h.Payments.HandleCallback(c.Request.Context(), ipn)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": p.MomoOrderID, "status": p.Status})
}

func (h *Handler) PaymentStatus(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	p, err := h.Payments.GetByOrderNumber(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	o, err := h.Orders.GetByID(c.Request.Context(), p.OrderID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if o.UserID != user.ID && !user.Role.Staff() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) MyPayments(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	payments, err := h.Payments.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *Handler) RefundPayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Payments.Refund(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ConfirmBankTransfer lets staff settle a bank-transfer payment once the
// money shows up on the account statement.
func (h *Handler) ConfirmBankTransfer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Payments.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if p.Method != models.MethodBankTransfer {
		c.JSON(http.StatusConflict, gin.H{"error": "payment is not a bank transfer"})
		return
	}
	settled, err := h.Payments.MarkCompleted(c.Request.Context(), p.OrderID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settled)
}
