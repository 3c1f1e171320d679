package model

import (
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
)

// User is the account row. Either Email or Phone is set depending on the
// signup path; PasswordHash is nil for phone-only and OAuth accounts.
type User struct {
	ID           int64      `json:"id"`
	Email        *string    `json:"email,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	PasswordHash *string    `json:"-"`
	Nickname     string     `json:"nickname"`
	Role         enums.Role `json:"role"`
	Banned       bool       `json:"banned"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
