package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"wastecycle/internal/domain/entity"
	"wastecycle/internal/domain/repository"
	"wastecycle/internal/infrastructure/ratelimit"
	ws "wastecycle/internal/infrastructure/websocket"
	"wastecycle/pkg/errors"
	"wastecycle/pkg/logger"
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	authClient  AuthClient
	wsManager   *ws.Manager
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	authClient AuthClient,
	wsManager *ws.Manager,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		listingRepo: listingRepo,
		authClient:  authClient,
		wsManager:   wsManager,
		rateLimiter: ratelimit.NewRateLimiter(),
	}
}

// RoomView is a chat room as seen by one of its participants: the stored
// fields plus the counterparty resolved relative to that participant.
type RoomView struct {
	ID                   string            `json:"id"`
	Participants         []string          `json:"participants"`
	ParticipantNames     map[string]string `json:"participantNames"`
	ListingID            string            `json:"listingId"`
	ListingTitle         string            `json:"listingTitle,omitempty"`
	ListingImage         string            `json:"listingImage,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
	LastMessage          string            `json:"lastMessage,omitempty"`
	LastMessageSenderID  string            `json:"lastMessageSenderId,omitempty"`
	OtherParticipantID   string            `json:"otherParticipantId"`
	OtherParticipantName string            `json:"otherParticipantName,omitempty"`
}

// ListRooms returns every room the user participates in, newest activity
// first. Read-only.
func (uc *ChatUseCase) ListRooms(ctx context.Context, userID string) ([]*RoomView, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Missing subject identifier", nil)
	}

	rooms, err := uc.chatRepo.ListByParticipant(ctx, userID)
	if err != nil {
		logger.Error("ListRooms: failed to list rooms for user %s: %v", userID, err)
		return nil, err
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].LastActivity().After(rooms[j].LastActivity())
	})

	views := make([]*RoomView, 0, len(rooms))
	for _, room := range rooms {
		views = append(views, uc.roomView(room, userID))
	}
	return views, nil
}

// FindOrCreateRoom returns the room for (user, listing owner, listing),
// creating it on first contact. The returned bool reports whether a new room
// was created. Because the room key is derived, repeat calls and racing
// initiations from both sides converge on the same document; the repository's
// conditional create closes the remaining create/create race.
func (uc *ChatUseCase) FindOrCreateRoom(ctx context.Context, userID, listingID string) (*RoomView, bool, error) {
	if userID == "" {
		return nil, false, errors.Unauthorized("Missing subject identifier", nil)
	}
	if listingID == "" {
		return nil, false, errors.BadRequest("productId is required", nil)
	}

	if allowed, _ := uc.rateLimiter.Allow(userID, "create_room"); !allowed {
		return nil, false, errors.TooManyRequests("Rate limit exceeded. Please wait before opening another chat")
	}

	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, false, err
	}

	if userID == listing.OwnerID {
		return nil, false, errors.BadRequest("You cannot open a chat on your own listing", nil)
	}

	roomID := RoomIDFor(userID, listing.OwnerID, listingID)

	existing, err := uc.chatRepo.GetByID(ctx, roomID)
	if err == nil {
		return uc.roomView(existing, userID), false, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, false, err
	}

	buyerName := uc.resolveDisplayName(ctx, userID, "Buyer")
	sellerName := uc.resolveDisplayName(ctx, listing.OwnerID, "Seller")

	room := &entity.ChatRoom{
		ID:           roomID,
		Participants: []string{userID, listing.OwnerID},
		ParticipantNames: map[string]string{
			userID:          buyerName,
			listing.OwnerID: sellerName,
		},
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		ListingImage: listing.PrimaryImage(),

		// Flat fields for older readers.
		BuyerID:    userID,
		SellerID:   listing.OwnerID,
		BuyerName:  buyerName,
		SellerName: sellerName,
	}

	if err := uc.chatRepo.Create(ctx, room); err != nil {
		if errors.Is(err, "CONFLICT") {
			// Lost the create race; the other side's document wins.
			existing, getErr := uc.chatRepo.GetByID(ctx, roomID)
			if getErr != nil {
				return nil, false, getErr
			}
			return uc.roomView(existing, userID), false, nil
		}
		logger.Error("FindOrCreateRoom: failed to create room %s: %v", roomID, err)
		return nil, false, err
	}

	return uc.roomView(room, userID), true, nil
}

// GetRoom returns a single room, enforcing participant membership.
func (uc *ChatUseCase) GetRoom(ctx context.Context, userID, roomID string) (*RoomView, error) {
	room, err := uc.chatRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if !room.HasParticipant(userID) {
		logger.Warn("GetRoom: user %s is not a participant in room %s", userID, roomID)
		return nil, errors.Forbidden("You are not a participant in this chat room", nil)
	}

	return uc.roomView(room, userID), nil
}

// DeleteRoom removes a room and cascades to its messages. Role authorization
// is enforced by the caller (admin router), not here.
func (uc *ChatUseCase) DeleteRoom(ctx context.Context, roomID string) error {
	if _, err := uc.chatRepo.GetByID(ctx, roomID); err != nil {
		return err
	}
	return uc.chatRepo.Delete(ctx, roomID)
}

// PostMessage appends a message to a room and updates the room's summary
// fields. The message write happens before the summary update; the two are
// not atomic with each other.
func (uc *ChatUseCase) PostMessage(ctx context.Context, userID, roomID, text string) (*entity.Message, error) {
	if allowed, _ := uc.rateLimiter.Allow(userID, "send_message"); !allowed {
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.BadRequest("Message text must not be empty", nil)
	}

	room, err := uc.chatRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if !room.HasParticipant(userID) {
		logger.Warn("PostMessage: user %s is not a participant in room %s", userID, roomID)
		return nil, errors.Forbidden("You are not a participant in this chat room", nil)
	}

	receiverID, ok := room.OtherParticipant(userID)
	if !ok {
		logger.Error("PostMessage: room %s has a degenerate participant set %v", roomID, room.Participants)
		return nil, errors.InvalidState("Cannot determine receiver for this room", nil)
	}

	message := &entity.Message{
		ChatRoomID: roomID,
		SenderID:   userID,
		ReceiverID: receiverID,
		Text:       text,
		Read:       false,
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		logger.Error("PostMessage: failed to create message in room %s: %v", roomID, err)
		return nil, err
	}

	room.LastMessage = message.Text
	room.LastMessageSenderID = userID
	if err := uc.chatRepo.Update(ctx, room); err != nil {
		logger.Error("PostMessage: failed to update room %s summary: %v", roomID, err)
		return nil, err
	}

	uc.notifyNewMessage(roomID, receiverID, message)

	return message, nil
}

// ListMessages returns the room's full history in ascending timestamp order.
func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, roomID string) ([]*entity.Message, error) {
	room, err := uc.chatRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if !room.HasParticipant(userID) {
		logger.Warn("ListMessages: user %s is not a participant in room %s", userID, roomID)
		return nil, errors.Forbidden("You are not a participant in this chat room", nil)
	}

	return uc.chatRepo.ListMessagesByRoom(ctx, roomID)
}

func (uc *ChatUseCase) roomView(room *entity.ChatRoom, userID string) *RoomView {
	view := &RoomView{
		ID:                  room.ID,
		Participants:        room.Participants,
		ParticipantNames:    room.ParticipantNames,
		ListingID:           room.ListingID,
		ListingTitle:        room.ListingTitle,
		ListingImage:        room.ListingImage,
		CreatedAt:           room.CreatedAt,
		UpdatedAt:           room.UpdatedAt,
		LastMessage:         room.LastMessage,
		LastMessageSenderID: room.LastMessageSenderID,
	}

	other, ok := room.OtherParticipant(userID)
	if !ok {
		return view
	}
	view.OtherParticipantID = other
	view.OtherParticipantName = participantName(room, other)
	return view
}

// participantName reads the name snapshot for a participant, falling back to
// the legacy flat fields for rooms written before the map existed.
func participantName(room *entity.ChatRoom, participantID string) string {
	if name := room.ParticipantNames[participantID]; name != "" {
		return name
	}
	switch participantID {
	case room.BuyerID:
		if room.BuyerName != "" {
			return room.BuyerName
		}
	case room.SellerID:
		if room.SellerName != "" {
			return room.SellerName
		}
	}
	return "Unknown"
}

// resolveDisplayName picks a display name for the snapshot: stored profile
// name, then the identity provider's display name, then the email local-part,
// then the given placeholder.
func (uc *ChatUseCase) resolveDisplayName(ctx context.Context, userID, placeholder string) string {
	if user, err := uc.userRepo.GetByID(ctx, userID); err == nil && user.Name != "" {
		return user.Name
	}

	if uc.authClient != nil {
		if info, err := uc.authClient.GetUserInfo(ctx, userID); err == nil {
			if info.DisplayName != "" {
				return info.DisplayName
			}
			if at := strings.Index(info.Email, "@"); at > 0 {
				return info.Email[:at]
			}
		}
	}

	return placeholder
}

func (uc *ChatUseCase) notifyNewMessage(roomID, receiverID string, message *entity.Message) {
	if uc.wsManager == nil {
		return
	}

	notification := map[string]interface{}{
		"type":       "new_message",
		"chatRoomId": roomID,
		"message":    message,
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		logger.Error("notifyNewMessage: failed to marshal notification: %v", err)
		return
	}

	// Best effort: the connection layer gives no delivery guarantee.
	uc.wsManager.SendToChatRoom(roomID, payload, message.SenderID)
	uc.wsManager.SendToUser(receiverID, payload)
}
