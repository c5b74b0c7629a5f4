package notify

import "context"

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventSeriesCreated    EventType = "series.created"
	EventSeriesConfirmed  EventType = "series.confirmed"
	EventSeriesCancelled  EventType = "series.cancelled"
	EventSeriesExtended   EventType = "series.extended"
)

// Notifier — точка вызова для уведомлений вида "сработало и забыли".
// Механика доставки (почта, мессенджеры) живёт за пределами ядра,
// ядро лишь публикует событие. Ошибки доставки никогда не
// распространяются наверх.
type Notifier interface {
	Notify(ctx context.Context, event EventType, payload any)
}

// Nop отключает уведомления.
type Nop struct{}

func (Nop) Notify(context.Context, EventType, any) {}
