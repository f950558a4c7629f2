package entity

import "time"

type Listing struct {
	ID          string   `json:"id" firestore:"id"`
	OwnerID     string   `json:"ownerId" firestore:"ownerId"`
	Title       string   `json:"title" firestore:"title"`
	Description string   `json:"description" firestore:"description"`
	Category    string   `json:"category" firestore:"category"` // "manure", "compost", "slurry", "bedding"
	Quantity    float64  `json:"quantity" firestore:"quantity"`
	Unit        string   `json:"unit" firestore:"unit"` // "kg", "ton", "m3"
	Price       float64  `json:"price" firestore:"price"`
	Location    string   `json:"location" firestore:"location"`
	Images      []string `json:"images" firestore:"images"`
	Sold        bool     `json:"sold" firestore:"sold"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// PrimaryImage returns the first image URL, the one shown in listing cards
// and snapshotted into chat rooms.
func (l *Listing) PrimaryImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}
