package model

import "time"

// Compensation представляет условия оплаты бронирования.
// HourlyRateCents — nil для бесплатного использования.
type Compensation struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	HourlyRateCents *int64    `json:"hourly_rate_cents"` // в центах
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsFree проверяет, бесплатна ли компенсация.
func (c *Compensation) IsFree() bool {
	return c.HourlyRateCents == nil
}
