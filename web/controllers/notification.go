package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"petfoodstore/web/middleware"
)

func (h *Handler) MyNotifications(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	ns, err := h.Notifications.ListNotificationsByUser(c.Request.Context(), user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ns)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Notifications.MarkNotificationRead(c.Request.Context(), id, user.ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
