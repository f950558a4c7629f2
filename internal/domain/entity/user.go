package entity

import "time"

type User struct {
	ID       string `json:"id" firestore:"id"`
	Email    string `json:"email" firestore:"email"`
	Name     string `json:"name" firestore:"name"`
	Role     string `json:"role" firestore:"role"` // "user", "admin"
	FarmName string `json:"farmName,omitempty" firestore:"farmName,omitempty"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
