package domain

import "time"

// Review is a customer's rating of the store. Reviews are removed with their author.
type Review struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email" validate:"required,email,max=254"`
	Review    string    `json:"review" validate:"required,max=500"`
	Rating    int       `json:"rating" validate:"min=1,max=5"`
	CreatedAt time.Time `json:"created_at"`
}
