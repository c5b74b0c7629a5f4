package clock

import (
	"sync"
	"time"
)

// Clock — инжектируемый источник времени. Перечислитель и планировщик
// никогда не читают time.Now напрямую, чтобы тесты могли заморозить время.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System возвращает часы, читающие системное время.
func System() Clock { return systemClock{} }

// Fixed — управляемые часы для тестов.
type Fixed struct {
	mu      sync.Mutex
	current time.Time
}

// NewFixed создаёт часы, остановленные на указанном моменте.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{current: t}
}

// Now возвращает текущий момент часов.
func (c *Fixed) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set переводит часы на указанный момент.
func (c *Fixed) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance сдвигает часы вперёд и возвращает новое время.
func (c *Fixed) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}
