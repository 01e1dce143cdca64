package domain

import "time"

// User represents an account that owns tasks.
type User struct {
	ID        string
	Email     string
	Name      string
	Phone     *string
	Token     string
	IsActive  bool
	CreatedAt time.Time
}
