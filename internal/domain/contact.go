package domain

import "time"

type ContactMessage struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	YourName  string    `json:"yourname" bson:"your_name" validate:"required,max=50"`
	Email     string    `json:"email" bson:"email" validate:"required,email,max=254"`
	Message   string    `json:"message" bson:"message" validate:"required,max=500"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
