package handler

import (
	"github.com/labstack/echo/v4"

	"wastecycle/internal/usecase"
	"wastecycle/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createRoomRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

type postMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// ListRooms returns all chat rooms the authenticated user participates in,
// newest activity first.
func (h *ChatHandler) ListRooms(c echo.Context) error {
	userID := c.Get("uid").(string)

	rooms, err := h.chatUseCase.ListRooms(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, rooms)
}

// FindOrCreateRoom opens the room for the authenticated user and the
// listing's owner: 201 when a room was created, 200 when it already existed.
func (h *ChatHandler) FindOrCreateRoom(c echo.Context) error {
	var req createRoomRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	room, created, err := h.chatUseCase.FindOrCreateRoom(c.Request().Context(), userID, req.ProductID)
	if err != nil {
		return response.Error(c, err)
	}

	if created {
		return response.Created(c, room)
	}
	return response.Success(c, room)
}

func (h *ChatHandler) GetRoom(c echo.Context) error {
	roomID := c.Param("id")
	userID := c.Get("uid").(string)

	room, err := h.chatUseCase.GetRoom(c.Request().Context(), userID, roomID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, room)
}

func (h *ChatHandler) PostMessage(c echo.Context) error {
	roomID := c.Param("id")
	userID := c.Get("uid").(string)

	var req postMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.PostMessage(c.Request().Context(), userID, roomID, req.Text)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// ListMessages returns the room's full history in ascending timestamp order.
func (h *ChatHandler) ListMessages(c echo.Context) error {
	roomID := c.Param("id")
	userID := c.Get("uid").(string)

	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), userID, roomID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

// DeleteRoom removes a room and its messages. Admin only; the router gates
// the role.
func (h *ChatHandler) DeleteRoom(c echo.Context) error {
	roomID := c.Param("id")

	if err := h.chatUseCase.DeleteRoom(c.Request().Context(), roomID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Chat room deleted"})
}
