package model

import "time"

// Organization представляет организацию, бронирующую или
// предоставляющую общие ресурсы.
type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}
