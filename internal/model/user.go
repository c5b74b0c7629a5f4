package model

import "time"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsManager bool      `json:"is_manager"` // Может подтверждать чужие бронирования
	CreatedAt time.Time `json:"created_at"`
}
