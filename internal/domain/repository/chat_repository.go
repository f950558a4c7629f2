package repository

import (
	"context"

	"wastecycle/internal/domain/entity"
)

type ChatRepository interface {
	// Create writes the room at its derived key and fails with a CONFLICT
	// error if a document already exists there, so racing first contacts
	// cannot overwrite each other.
	Create(ctx context.Context, room *entity.ChatRoom) error
	GetByID(ctx context.Context, id string) (*entity.ChatRoom, error)
	ListByParticipant(ctx context.Context, userID string) ([]*entity.ChatRoom, error)
	Update(ctx context.Context, room *entity.ChatRoom) error
	// Delete removes the room and all messages in its subcollection.
	Delete(ctx context.Context, id string) error

	CreateMessage(ctx context.Context, message *entity.Message) error
	ListMessagesByRoom(ctx context.Context, roomID string) ([]*entity.Message, error)
}
