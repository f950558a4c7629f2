package entity

import "time"

// Message is immutable once written except for the read flag, which this
// backend only ever writes as false.
type Message struct {
	ID         string    `json:"id" firestore:"id"`
	ChatRoomID string    `json:"chatRoomId" firestore:"chatRoomId"`
	SenderID   string    `json:"senderId" firestore:"senderId"`
	ReceiverID string    `json:"receiverId" firestore:"receiverId"`
	Text       string    `json:"text" firestore:"text"`
	Timestamp  time.Time `json:"timestamp" firestore:"timestamp"`
	Read       bool      `json:"read" firestore:"read"`
}
