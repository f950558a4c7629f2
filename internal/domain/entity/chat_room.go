package entity

import "time"

// ChatRoom is a conversation scoped to exactly two participants and one
// listing. Its ID is derived from the participant pair and the listing, never
// random, so both sides of a first contact converge on the same document.
type ChatRoom struct {
	ID           string   `json:"id" firestore:"id"`
	Participants []string `json:"participants" firestore:"participants"`

	// ParticipantNames is a display-name snapshot taken at creation time,
	// keyed by participant ID. Not kept in sync with later profile edits.
	ParticipantNames map[string]string `json:"participantNames" firestore:"participantNames"`

	ListingID    string `json:"listingId" firestore:"listingId"`
	ListingTitle string `json:"listingTitle,omitempty" firestore:"listingTitle,omitempty"`
	ListingImage string `json:"listingImage,omitempty" firestore:"listingImage,omitempty"`

	LastMessage         string `json:"lastMessage,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageSenderID string `json:"lastMessageSenderId,omitempty" firestore:"lastMessageSenderId,omitempty"`

	// Flat buyer/seller fields written for older readers of the rooms
	// collection.
	BuyerID    string `json:"buyerId,omitempty" firestore:"buyerId,omitempty"`
	SellerID   string `json:"sellerId,omitempty" firestore:"sellerId,omitempty"`
	BuyerName  string `json:"buyerName,omitempty" firestore:"buyerName,omitempty"`
	SellerName string `json:"sellerName,omitempty" firestore:"sellerName,omitempty"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

func (r *ChatRoom) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the unique participant that is not userID. The
// second return is false when the stored participant set is degenerate
// (duplicate or missing entries) and no single counterparty exists.
func (r *ChatRoom) OtherParticipant(userID string) (string, bool) {
	other := ""
	count := 0
	for _, p := range r.Participants {
		if p != userID && p != "" {
			other = p
			count++
		}
	}
	if count != 1 {
		return "", false
	}
	return other, true
}

// LastActivity is the sort key for room lists: updatedAt, falling back to
// createdAt, with rooms carrying neither sorting as oldest.
func (r *ChatRoom) LastActivity() time.Time {
	if !r.UpdatedAt.IsZero() {
		return r.UpdatedAt
	}
	return r.CreatedAt
}
