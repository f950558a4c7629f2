package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"wastecycle/internal/domain/entity"
	"wastecycle/internal/domain/repository"
	"wastecycle/pkg/errors"
	"wastecycle/pkg/logger"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) Create(ctx context.Context, room *entity.ChatRoom) error {
	if room.ID == "" {
		return errors.Internal("Chat room ID must be derived before create", nil)
	}

	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now

	// Conditional write: fails if the derived key is already taken, which is
	// how racing first contacts converge on a single room.
	_, err := r.client.Collection("chatRooms").Doc(room.ID).Create(ctx, room)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Chat room already exists", err)
		}
		return errors.Internal("Failed to create chat room", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	doc, err := r.client.Collection("chatRooms").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat room", nil)
		}
		return nil, errors.Internal("Failed to get chat room", err)
	}

	var room entity.ChatRoom
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}

	return &room, nil
}

func (r *firestoreChatRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	// No OrderBy here: the usecase sorts with the createdAt fallback, and an
	// unsorted array-contains query needs no composite index.
	query := r.client.Collection("chatRooms").Where("participants", "array-contains", userID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching rooms for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to fetch chat rooms", err)
	}

	var rooms []*entity.ChatRoom
	for _, doc := range docs {
		var room entity.ChatRoom
		if err := doc.DataTo(&room); err != nil {
			logger.Warn("Skipping malformed chat room %s: %v", doc.Ref.ID, err)
			continue
		}
		rooms = append(rooms, &room)
	}

	return rooms, nil
}

func (r *firestoreChatRepository) Update(ctx context.Context, room *entity.ChatRoom) error {
	room.UpdatedAt = time.Now()

	_, err := r.client.Collection("chatRooms").Doc(room.ID).Set(ctx, room)
	if err != nil {
		return errors.Internal("Failed to update chat room", err)
	}

	return nil
}

func (r *firestoreChatRepository) Delete(ctx context.Context, id string) error {
	roomRef := r.client.Collection("chatRooms").Doc(id)

	// Firestore does not cascade subcollection deletes; remove the messages
	// first so the room never disappears while its history lingers.
	iter := roomRef.Collection("messages").Documents(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to iterate messages for delete", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return errors.Internal("Failed to delete message", err)
		}
	}

	if _, err := roomRef.Delete(ctx); err != nil {
		return errors.Internal("Failed to delete chat room", err)
	}

	return nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.Timestamp = time.Now()

	_, err := r.client.Collection("chatRooms").Doc(message.ChatRoomID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) ListMessagesByRoom(ctx context.Context, roomID string) ([]*entity.Message, error) {
	query := r.client.Collection("chatRooms").Doc(roomID).Collection("messages").OrderBy("timestamp", firestore.Asc)

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for room %s: %v", roomID, err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}

		messages = append(messages, &message)
	}

	return messages, nil
}
