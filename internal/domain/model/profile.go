package model

import "time"

type Profile struct {
	UserID    int64     `json:"user_id"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Points    int64     `json:"points"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
