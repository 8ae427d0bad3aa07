package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"petfoodstore/errs"
	"petfoodstore/models"
	"petfoodstore/notify"
	"petfoodstore/web/middleware"
)

// OpenChatRoom returns the customer's open support room, creating one if
// needed.
func (h *Handler) OpenChatRoom(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	room, err := h.Chats.FindOpenRoomByCustomer(c.Request.Context(), user.ID)
	if err == nil {
		c.JSON(http.StatusOK, room)
		return
	}
	if !errs.Is(err, errs.KindNotFound) {
		abortWithError(c, err)
		return
	}

	room = &models.ChatRoom{CustomerID: user.ID, Status: models.RoomOpen}
	if err := h.Chats.CreateRoom(c.Request.Context(), room); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *Handler) ListChatRooms(c *gin.Context) {
	rooms, err := h.Chats.ListRooms(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *Handler) roomForUser(c *gin.Context) (*models.ChatRoom, models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, models.User{}, false
	}
	id, ok := paramID(c, "id")
	if !ok {
		return nil, models.User{}, false
	}
	room, err := h.Chats.FindRoomByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return nil, models.User{}, false
	}
	if room.CustomerID != user.ID && !user.Role.Staff() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return nil, models.User{}, false
	}
	return room, user, true
}

func (h *Handler) ListChatMessages(c *gin.Context) {
	room, _, ok := h.roomForUser(c)
	if !ok {
		return
	}
	msgs, err := h.Chats.ListMessages(c.Request.Context(), room.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) PostChatMessage(c *gin.Context) {
	room, user, ok := h.roomForUser(c)
	if !ok {
		return
	}
	if room.Status != models.RoomOpen {
		c.JSON(http.StatusConflict, gin.H{"error": "chat room is closed"})
		return
	}

	var body struct {
		Body string `json:"body"`
	}
	if err := c.BindJSON(&body); err != nil || body.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message body is required"})
		return
	}

	// first staff reply claims the room
	if user.Role.Staff() && room.EmployeeID == nil {
		room.EmployeeID = &user.ID
		if err := h.Chats.SaveRoom(c.Request.Context(), room); err != nil {
			abortWithError(c, err)
			return
		}
	}

	msg := models.ChatMessage{RoomID: room.ID, SenderID: user.ID, Body: body.Body}
	if err := h.Chats.CreateMessage(c.Request.Context(), &msg); err != nil {
		abortWithError(c, err)
		return
	}

	// notify the other side
	target := room.CustomerID
	if user.ID == room.CustomerID && room.EmployeeID != nil {
		target = *room.EmployeeID
	}
	if target != user.ID {
		h.Events.Emit(c.Request.Context(), notify.Event{
			Type:    models.NotifyChat,
			UserID:  target,
			Title:   "New support message",
			Message: body.Body,
			RefID:   room.ID,
		})
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) CloseChatRoom(c *gin.Context) {
	room, _, ok := h.roomForUser(c)
	if !ok {
		return
	}
	room.Status = models.RoomClosed
	if err := h.Chats.SaveRoom(c.Request.Context(), room); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}
